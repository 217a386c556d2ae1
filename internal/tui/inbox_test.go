package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// fakeStore is an in-memory NotificationReader for tests.
type fakeStore struct {
	notifications []models.Notification
	marked        []string
	markedAll     bool
	deleted       []string
	cleared       bool
}

func (f *fakeStore) All() ([]models.Notification, error) {
	out := make([]models.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out, nil
}

func (f *fakeStore) MarkRead(id string) error {
	f.marked = append(f.marked, id)
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
		}
	}
	return nil
}

func (f *fakeStore) MarkAllRead() error {
	f.markedAll = true
	for i := range f.notifications {
		f.notifications[i].Read = true
	}
	return nil
}

func (f *fakeStore) Delete(id string) error {
	f.deleted = append(f.deleted, id)
	kept := f.notifications[:0]
	for _, n := range f.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	f.notifications = kept
	return nil
}

func (f *fakeStore) Clear() error {
	f.cleared = true
	f.notifications = nil
	return nil
}

func testNotifications() []models.Notification {
	now := time.Now()
	return []models.Notification{
		{ID: "n1", Title: "Important email from alice@example.com", Severity: models.SeverityError, Category: "email", CreatedAt: now},
		{ID: "n2", Title: "Scheduling conflict", Severity: models.SeverityError, Category: "calendar", CreatedAt: now},
		{ID: "n3", Title: "Follow-up suggestion", Severity: models.SeverityWarning, Category: "follow_up", Read: true, CreatedAt: now},
	}
}

func loadInbox(t *testing.T, store *fakeStore) *Inbox {
	t.Helper()
	m := NewInbox(store)
	msg := m.load()
	loaded, ok := msg.(loadedMsg)
	if !ok {
		t.Fatalf("expected loadedMsg, got %T", msg)
	}
	m.Update(loaded)
	return m
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{}
}

func TestInboxNavigation(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	if m.selected != 0 {
		t.Fatalf("expected initial selection 0, got %d", m.selected)
	}

	m.Update(key("down"))
	if m.selected != 1 {
		t.Errorf("expected selection 1 after down, got %d", m.selected)
	}

	m.Update(key("down"))
	m.Update(key("down"))
	if m.selected != 2 {
		t.Errorf("expected selection clamped at 2, got %d", m.selected)
	}

	m.Update(key("up"))
	if m.selected != 1 {
		t.Errorf("expected selection 1 after up, got %d", m.selected)
	}
}

func TestInboxMarkRead(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	m.Update(key("enter"))
	if len(store.marked) != 1 || store.marked[0] != "n1" {
		t.Errorf("expected n1 marked read, got %v", store.marked)
	}
}

func TestInboxMarkReadSkipsAlreadyRead(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	m.Update(key("down"))
	m.Update(key("down")) // n3, already read
	m.Update(key("enter"))
	if len(store.marked) != 0 {
		t.Errorf("expected no mark-read calls, got %v", store.marked)
	}
}

func TestInboxDismiss(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	m.Update(key("down"))
	_, cmd := m.Update(key("d"))
	if len(store.deleted) != 1 || store.deleted[0] != "n2" {
		t.Fatalf("expected n2 deleted, got %v", store.deleted)
	}
	if cmd == nil {
		t.Fatal("expected a reload command after dismiss")
	}
	if loaded, ok := cmd().(loadedMsg); ok {
		m.Update(loaded)
	}
	if len(m.filtered) != 2 {
		t.Errorf("expected 2 rows after dismiss, got %d", len(m.filtered))
	}
}

func TestInboxClearAll(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	_, cmd := m.Update(key("C"))
	if !store.cleared {
		t.Fatal("expected clear to be called")
	}
	if loaded, ok := cmd().(loadedMsg); ok {
		m.Update(loaded)
	}
	if len(m.filtered) != 0 {
		t.Errorf("expected empty inbox after clear, got %d rows", len(m.filtered))
	}
}

func TestInboxFilter(t *testing.T) {
	store := &fakeStore{notifications: testNotifications()}
	m := loadInbox(t, store)

	m.filter.SetValue("calendar")
	m.applyFilter()

	if len(m.filtered) != 1 {
		t.Fatalf("expected 1 filtered row, got %d", len(m.filtered))
	}
	if got := m.notifications[m.filtered[0]].ID; got != "n2" {
		t.Errorf("expected n2 to match filter, got %s", got)
	}
}
