package state

import (
	"fmt"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// NotificationStore persists user-visible notifications.
type NotificationStore struct {
	db *DB
}

// NewNotificationStore creates a NotificationStore over the given database.
func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Insert persists a new notification.
func (s *NotificationStore) Insert(n models.Notification) error {
	read := 0
	if n.Read {
		read = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, title, message, severity, category, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Message, string(n.Severity), n.Category, read, formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// All returns notifications newest first.
func (s *NotificationStore) All() ([]models.Notification, error) {
	rows, err := s.db.Query(`
		SELECT id, title, message, severity, category, read, created_at
		FROM notifications ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var severity, createdAt string
		var read int
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &severity, &n.Category, &read, &createdAt); err != nil {
			return nil, err
		}
		n.Severity = models.Severity(severity)
		n.Read = read != 0
		if t, err := parseTime(createdAt); err == nil {
			n.CreatedAt = t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() (int, error) {
	var n int
	row := s.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE read = 0")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks a single notification as read.
func (s *NotificationStore) MarkRead(id string) error {
	_, err := s.db.Exec("UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification as read.
func (s *NotificationStore) MarkAllRead() error {
	_, err := s.db.Exec("UPDATE notifications SET read = 1")
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Delete removes a single notification.
func (s *NotificationStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// Clear removes all notifications.
func (s *NotificationStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM notifications")
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// InsightStore persists insight records derived from findings.
type InsightStore struct {
	db *DB
}

// NewInsightStore creates an InsightStore over the given database.
func NewInsightStore(db *DB) *InsightStore {
	return &InsightStore{db: db}
}

// Insert persists a new insight.
func (s *InsightStore) Insert(i models.Insight) error {
	_, err := s.db.Exec(`
		INSERT INTO insights
		(id, type, title, description, confidence, related_to, recommended_action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, string(i.Type), i.Title, i.Description, i.Confidence,
		i.RelatedTo, i.RecommendedAction, formatTime(i.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// All returns insights newest first.
func (s *InsightStore) All() ([]models.Insight, error) {
	rows, err := s.db.Query(`
		SELECT id, type, title, description, confidence, related_to, recommended_action, created_at
		FROM insights ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []models.Insight
	for rows.Next() {
		var i models.Insight
		var typ, createdAt string
		if err := rows.Scan(&i.ID, &typ, &i.Title, &i.Description, &i.Confidence,
			&i.RelatedTo, &i.RecommendedAction, &createdAt); err != nil {
			return nil, err
		}
		i.Type = models.InsightType(typ)
		if t, err := parseTime(createdAt); err == nil {
			i.CreatedAt = t
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Clear removes all insights.
func (s *InsightStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM insights")
	if err != nil {
		return fmt.Errorf("clear insights: %w", err)
	}
	return nil
}
