package state

import (
	"database/sql"
	"fmt"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// CRMStore provides read access to the CRM entities used by analysis
// steps, plus seeding for init and tests. The workflow engine treats
// this as a read-only collaborator.
type CRMStore struct {
	db *DB
}

// NewCRMStore creates a CRMStore over the given database.
func NewCRMStore(db *DB) *CRMStore {
	return &CRMStore{db: db}
}

// PendingTasks returns all tasks not yet marked done.
func (s *CRMStore) PendingTasks() ([]models.CRMTask, error) {
	rows, err := s.db.Query(`
		SELECT id, title, due_date, priority, done
		FROM tasks WHERE done = 0 ORDER BY due_date IS NULL, due_date
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.CRMTask
	for rows.Next() {
		var t models.CRMTask
		var due sql.NullString
		var done int
		if err := rows.Scan(&t.ID, &t.Title, &due, &t.Priority, &done); err != nil {
			return nil, err
		}
		t.DueDate = parseNullableTime(due)
		t.Done = done != 0
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Snapshot returns the full leads and deals view.
func (s *CRMStore) Snapshot() (*models.CRMSnapshot, error) {
	snap := &models.CRMSnapshot{}

	rows, err := s.db.Query(`
		SELECT id, name, company, email, status, score, created_at
		FROM leads ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	for rows.Next() {
		var l models.Lead
		var status, createdAt string
		if err := rows.Scan(&l.ID, &l.Name, &l.Company, &l.Email, &status, &l.Score, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		l.Status = models.LeadStatus(status)
		if t, err := parseTime(createdAt); err == nil {
			l.CreatedAt = t
		}
		snap.Leads = append(snap.Leads, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.Query(`
		SELECT id, title, value, stage, probability, contact, created_at
		FROM deals ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Deal
		var stage, createdAt string
		if err := rows.Scan(&d.ID, &d.Title, &d.Value, &stage, &d.Probability, &d.Contact, &createdAt); err != nil {
			return nil, err
		}
		d.Stage = models.DealStage(stage)
		if t, err := parseTime(createdAt); err == nil {
			d.CreatedAt = t
		}
		snap.Deals = append(snap.Deals, d)
	}
	return snap, rows.Err()
}

// SaveLead inserts or replaces a lead.
func (s *CRMStore) SaveLead(l models.Lead) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO leads (id, name, company, email, status, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Name, l.Company, l.Email, string(l.Status), l.Score, formatTime(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}

// SaveDeal inserts or replaces a deal.
func (s *CRMStore) SaveDeal(d models.Deal) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO deals (id, title, value, stage, probability, contact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.Value, string(d.Stage), d.Probability, d.Contact, formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("save deal: %w", err)
	}
	return nil
}

// SaveTask inserts or replaces a task.
func (s *CRMStore) SaveTask(t models.CRMTask) error {
	var due any
	if t.DueDate != nil {
		due = formatTime(*t.DueDate)
	}
	done := 0
	if t.Done {
		done = 1
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tasks (id, title, due_date, priority, done)
		VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.Title, due, t.Priority, done)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}
