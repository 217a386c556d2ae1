// Package tui provides the terminal notification inbox for Tailfin.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// NotificationReader is the store surface the inbox needs.
type NotificationReader interface {
	All() ([]models.Notification, error)
	MarkRead(id string) error
	MarkAllRead() error
	Delete(id string) error
	Clear() error
}

// Severity icons for notification rows.
const (
	iconInfo    = "[i]"
	iconWarning = "[!]"
	iconError   = "[✗]"
	iconRead    = "   "
	iconUnread  = " ● "
)

// Inbox is the bubbletea model for the notification inbox.
type Inbox struct {
	store NotificationReader

	notifications []models.Notification
	filtered      []int
	selected      int
	filter        textinput.Model
	filtering     bool
	width         int
	height        int
	quitting      bool
	err           error

	// Styles
	titleStyle    lipgloss.Style
	rowStyle      lipgloss.Style
	selectedStyle lipgloss.Style
	readStyle     lipgloss.Style
	infoStyle     lipgloss.Style
	warningStyle  lipgloss.Style
	errorStyle    lipgloss.Style
	detailStyle   lipgloss.Style
	hintStyle     lipgloss.Style
}

// NewInbox creates a new Inbox backed by the given store.
func NewInbox(store NotificationReader) *Inbox {
	filter := textinput.New()
	filter.Placeholder = "filter..."
	filter.CharLimit = 64

	return &Inbox{
		store:  store,
		filter: filter,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),

		rowStyle: lipgloss.NewStyle(),

		selectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Bold(true),

		readStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		infoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),

		warningStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		detailStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// loadedMsg carries the refreshed notification list.
type loadedMsg struct {
	notifications []models.Notification
	err           error
}

func (m *Inbox) load() tea.Msg {
	ns, err := m.store.All()
	return loadedMsg{notifications: ns, err: err}
}

// Init implements tea.Model.
func (m *Inbox) Init() tea.Cmd {
	return m.load
}

// Update implements tea.Model.
func (m *Inbox) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.notifications = msg.notifications
		m.applyFilter()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *Inbox) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.filter.Blur()
		if msg.String() == "esc" {
			m.filter.SetValue("")
			m.applyFilter()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Inbox) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}

	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case "enter":
		if n := m.current(); n != nil && !n.Read {
			if err := m.store.MarkRead(n.ID); err == nil {
				return m, m.load
			}
		}

	case "a":
		if err := m.store.MarkAllRead(); err == nil {
			return m, m.load
		}

	case "d":
		if n := m.current(); n != nil {
			if err := m.store.Delete(n.ID); err == nil {
				if m.selected > 0 {
					m.selected--
				}
				return m, m.load
			}
		}

	case "C":
		if err := m.store.Clear(); err == nil {
			m.selected = 0
			return m, m.load
		}
	}

	return m, nil
}

// current returns the selected notification, or nil when the list is empty.
func (m *Inbox) current() *models.Notification {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return nil
	}
	return &m.notifications[m.filtered[m.selected]]
}

// applyFilter recomputes the visible rows from the filter text.
func (m *Inbox) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = m.filtered[:0]
	for i, n := range m.notifications {
		if query == "" ||
			strings.Contains(strings.ToLower(n.Title), query) ||
			strings.Contains(strings.ToLower(n.Message), query) ||
			strings.Contains(strings.ToLower(n.Category), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// severityIcon returns the styled icon for a notification severity.
func (m *Inbox) severityIcon(sev models.Severity) string {
	switch sev {
	case models.SeverityError:
		return m.errorStyle.Render(iconError)
	case models.SeverityWarning:
		return m.warningStyle.Render(iconWarning)
	default:
		return m.infoStyle.Render(iconInfo)
	}
}

// View implements tea.Model.
func (m *Inbox) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	unread := 0
	for _, n := range m.notifications {
		if !n.Read {
			unread++
		}
	}
	b.WriteString(m.titleStyle.Render(fmt.Sprintf("Notifications (%d unread)", unread)))
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.filtered) == 0 {
		b.WriteString(m.readStyle.Render("No notifications."))
		b.WriteString("\n")
	}

	for i, idx := range m.filtered {
		n := m.notifications[idx]

		marker := iconUnread
		if n.Read {
			marker = iconRead
		}
		row := fmt.Sprintf("%s%s %s  %s",
			marker, m.severityIcon(n.Severity), n.CreatedAt.Format("Jan 02 15:04"), n.Title)

		style := m.rowStyle
		if n.Read {
			style = m.readStyle
		}
		if i == m.selected {
			style = m.selectedStyle
		}
		b.WriteString(style.Render(row))
		b.WriteString("\n")
	}

	if n := m.current(); n != nil {
		detail := n.Message
		if n.Category != "" {
			detail = fmt.Sprintf("[%s] %s", n.Category, detail)
		}
		b.WriteString("\n")
		b.WriteString(m.detailStyle.Render(detail))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.hintStyle.Render("↑/↓ navigate · enter mark read · a mark all · d dismiss · C clear · / filter · q quit"))
	b.WriteString("\n")

	return b.String()
}

// Run starts the inbox and blocks until the user quits.
func Run(store NotificationReader) error {
	m := NewInbox(store)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.err
}
