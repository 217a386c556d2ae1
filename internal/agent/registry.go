// Package agent provides the agent registry, built-in presets, and
// the per-agent chat interface.
package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// Registry manages the set of configured agents. It wraps the
// persistent store so the orchestrator and CLI share one view.
type Registry struct {
	store *state.AgentStore
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(store *state.AgentStore) *Registry {
	return &Registry{store: store}
}

// Create persists a new agent. Missing fields get defaults; an empty
// id is assigned a UUID.
func (r *Registry) Create(a *models.Agent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AgentStatusActive
	}
	if a.Category == "" {
		a.Category = models.CategoryCustom
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid agent status %q", a.Status)
	}
	if !a.Category.Valid() {
		return fmt.Errorf("invalid agent category %q", a.Category)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return r.store.Save(a)
}

// Update persists changes to an existing agent.
func (r *Registry) Update(a *models.Agent) error {
	existing, err := r.store.Get(a.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("agent %s not found", a.ID)
	}
	return r.store.Save(a)
}

// Delete removes an agent.
func (r *Registry) Delete(id string) error {
	return r.store.Delete(id)
}

// Get returns an agent by id, or nil if not found.
func (r *Registry) Get(id string) (*models.Agent, error) {
	return r.store.Get(id)
}

// All returns every agent in registry order.
func (r *Registry) All() ([]*models.Agent, error) {
	return r.store.All()
}

// Active returns active agents in registry order.
func (r *Registry) Active() ([]*models.Agent, error) {
	return r.store.Active()
}

// SetStatus pauses or resumes an agent.
func (r *Registry) SetStatus(id string, status models.AgentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid agent status %q", status)
	}
	return r.store.SetStatus(id, status)
}

// RecordCycle persists an agent's post-cycle statistics: the
// completed-cycle counter is incremented and efficiency is nudged
// upward, capped at 100.
func (r *Registry) RecordCycle(a *models.Agent) error {
	a.TasksCompleted++
	a.Efficiency += EfficiencyIncrement
	if a.Efficiency > 100 {
		a.Efficiency = 100
	}
	return r.store.UpdateStats(a.ID, a.TasksCompleted, a.Efficiency)
}

// EfficiencyIncrement is the per-cycle efficiency nudge.
const EfficiencyIncrement = 0.5

// UpgradeLegacyWorkflow detects the legacy built-in sales assistant
// configuration (known id, workflow shorter than the current minimum)
// and replaces its workflow in place with the current default. This
// is a data fix on read: it runs every cycle but is a no-op once the
// agent has been upgraded.
func (r *Registry) UpgradeLegacyWorkflow() error {
	a, err := r.store.Get(LegacyAgentID)
	if err != nil {
		return err
	}
	if a == nil || len(a.Workflow) >= LegacyMinSteps {
		return nil
	}

	upgraded := DefaultSalesWorkflow()
	if err := r.store.ReplaceWorkflow(a.ID, upgraded); err != nil {
		return fmt.Errorf("upgrade legacy workflow: %w", err)
	}
	return nil
}
