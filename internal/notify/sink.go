// Package notify delivers scan-cycle findings to the user as
// notifications and persisted insights.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// Sink receives the notifications and insights emitted at the end of
// a scan cycle. The finding-to-insight mapping lives in the
// orchestrator; the sink only persists.
type Sink interface {
	Notify(n models.Notification) error
	Persist(i models.Insight) error
}

// StoreSink is the SQLite-backed Sink used in production.
type StoreSink struct {
	notifications *state.NotificationStore
	insights      *state.InsightStore
}

// NewStoreSink creates a StoreSink over the given stores.
func NewStoreSink(n *state.NotificationStore, i *state.InsightStore) *StoreSink {
	return &StoreSink{notifications: n, insights: i}
}

// Notify persists a notification, assigning an id and timestamp if unset.
func (s *StoreSink) Notify(n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.notifications.Insert(n)
}

// Persist stores an insight, assigning an id and timestamp if unset.
func (s *StoreSink) Persist(i models.Insight) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	return s.insights.Insert(i)
}
