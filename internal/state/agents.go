package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// AgentStore persists agent configurations. Workflows and chat
// histories are stored as JSON columns; registry order is the
// position column, assigned at insert time.
type AgentStore struct {
	db *DB
}

// NewAgentStore creates an AgentStore over the given database.
func NewAgentStore(db *DB) *AgentStore {
	return &AgentStore{db: db}
}

// Save inserts or replaces an agent. New agents are appended to the
// end of the registry order.
func (s *AgentStore) Save(a *models.Agent) error {
	workflow, err := json.Marshal(a.Workflow)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	messages, err := json.Marshal(a.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	var position int
	row := s.db.QueryRow("SELECT position FROM agents WHERE id = ?", a.ID)
	if err := row.Scan(&position); err == sql.ErrNoRows {
		next := s.db.QueryRow("SELECT COALESCE(MAX(position), 0) + 1 FROM agents")
		if err := next.Scan(&position); err != nil {
			return fmt.Errorf("next position: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("lookup position: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO agents
		(id, name, role, description, avatar, status, category, workflow,
		 tasks_completed, efficiency, messages, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Role, a.Description, a.Avatar, string(a.Status),
		string(a.Category), string(workflow), a.TasksCompleted, a.Efficiency,
		string(messages), position, formatTime(a.CreatedAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save agent: %w", err)
	}
	return nil
}

// Get returns the agent with the given id, or nil if not found.
func (s *AgentStore) Get(id string) (*models.Agent, error) {
	row := s.db.QueryRow(`
		SELECT id, name, role, description, avatar, status, category,
		       workflow, tasks_completed, efficiency, messages, created_at, updated_at
		FROM agents WHERE id = ?
	`, id)

	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// All returns every agent in registry order.
func (s *AgentStore) All() ([]*models.Agent, error) {
	return s.list("")
}

// Active returns agents with active status, in registry order.
func (s *AgentStore) Active() ([]*models.Agent, error) {
	return s.list("WHERE status = 'active'")
}

func (s *AgentStore) list(where string) ([]*models.Agent, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, name, role, description, avatar, status, category,
		       workflow, tasks_completed, efficiency, messages, created_at, updated_at
		FROM agents %s ORDER BY position
	`, where))
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Delete removes an agent. Deleting a missing agent is not an error.
func (s *AgentStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

// UpdateStats persists the per-cycle statistics for an agent.
func (s *AgentStore) UpdateStats(id string, tasksCompleted int, efficiency float64) error {
	_, err := s.db.Exec(`
		UPDATE agents SET tasks_completed = ?, efficiency = ?, updated_at = ?
		WHERE id = ?
	`, tasksCompleted, efficiency, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update agent stats: %w", err)
	}
	return nil
}

// ReplaceWorkflow overwrites an agent's workflow in place.
func (s *AgentStore) ReplaceWorkflow(id string, workflow []models.Step) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE agents SET workflow = ?, updated_at = ? WHERE id = ?
	`, string(data), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("replace workflow: %w", err)
	}
	return nil
}

// ReplaceMessages overwrites an agent's chat history.
func (s *AgentStore) ReplaceMessages(id string, messages []models.ChatMessage) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE agents SET messages = ?, updated_at = ? WHERE id = ?
	`, string(data), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("replace messages: %w", err)
	}
	return nil
}

// SetStatus updates an agent's lifecycle status.
func (s *AgentStore) SetStatus(id string, status models.AgentStatus) error {
	_, err := s.db.Exec(`
		UPDATE agents SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanAgent.
type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(row scanner) (*models.Agent, error) {
	var a models.Agent
	var status, category, workflow, messages, createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Name, &a.Role, &a.Description, &a.Avatar,
		&status, &category, &workflow, &a.TasksCompleted, &a.Efficiency,
		&messages, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.Status = models.AgentStatus(status)
	a.Category = models.AgentCategory(category)

	if err := json.Unmarshal([]byte(workflow), &a.Workflow); err != nil {
		return nil, fmt.Errorf("unmarshal workflow for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(messages), &a.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages for %s: %w", a.ID, err)
	}

	if t, err := parseTime(createdAt); err == nil {
		a.CreatedAt = t
	}
	if t, err := parseTime(updatedAt); err == nil {
		a.UpdatedAt = t
	}

	return &a, nil
}
