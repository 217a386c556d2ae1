package models

import "time"

// AgentStatus represents the lifecycle state of an agent.
type AgentStatus string

const (
	// AgentStatusActive indicates the agent runs during scan cycles.
	AgentStatusActive AgentStatus = "active"
	// AgentStatusPaused indicates the agent is configured but not running.
	AgentStatusPaused AgentStatus = "paused"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusActive, AgentStatusPaused:
		return true
	default:
		return false
	}
}

// AgentCategory groups agents by the kind of work they do.
// The category is informational and does not change execution semantics.
type AgentCategory string

const (
	CategoryEmailManager    AgentCategory = "email_manager"
	CategoryCalendarManager AgentCategory = "calendar_manager"
	CategoryTaskManager     AgentCategory = "task_manager"
	CategoryCustomerSupport AgentCategory = "customer_support"
	CategoryResearch        AgentCategory = "research"
	CategoryCustom          AgentCategory = "custom"
)

// Valid returns true if the category is a known value.
func (c AgentCategory) Valid() bool {
	switch c {
	case CategoryEmailManager, CategoryCalendarManager, CategoryTaskManager,
		CategoryCustomerSupport, CategoryResearch, CategoryCustom:
		return true
	default:
		return false
	}
}

// ChatRole identifies who authored a chat turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in an agent's conversation history.
type ChatMessage struct {
	// Role is who authored the turn.
	Role ChatRole `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// Timestamp is when the turn was appended.
	Timestamp time.Time `json:"timestamp"`
}

// MaxChatHistory is the number of chat turns retained per agent.
// Older turns are dropped after each append.
const MaxChatHistory = 20

// Agent represents a configured autonomous worker with an ordered
// workflow, lifecycle status, and runtime statistics.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Role is a short label describing the agent's job.
	Role string `json:"role"`
	// Description is free text shown in listings and used in chat prompts.
	Description string `json:"description,omitempty"`
	// Avatar is a reference to the agent's avatar (emoji or URL).
	Avatar string `json:"avatar,omitempty"`
	// Status controls whether the agent runs during scan cycles.
	Status AgentStatus `json:"status"`
	// Category groups the agent by the kind of work it does.
	Category AgentCategory `json:"category"`
	// Workflow is the ordered list of steps executed each cycle.
	// An agent with an empty workflow is skipped, not an error.
	Workflow []Step `json:"workflow"`
	// TasksCompleted counts completed scan cycles.
	TasksCompleted int `json:"tasks_completed"`
	// Efficiency is a display metric nudged upward per cycle, capped at 100.
	Efficiency float64 `json:"efficiency"`
	// Messages is the agent's chat history, capped at MaxChatHistory turns.
	Messages []ChatMessage `json:"messages,omitempty"`
	// CreatedAt is when the agent was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the agent was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive returns true if the agent participates in scan cycles.
func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}

// AppendMessage adds a chat turn and truncates history to MaxChatHistory.
func (a *Agent) AppendMessage(msg ChatMessage) {
	a.Messages = append(a.Messages, msg)
	if len(a.Messages) > MaxChatHistory {
		a.Messages = a.Messages[len(a.Messages)-MaxChatHistory:]
	}
}
