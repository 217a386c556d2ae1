package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// noCredentialReply is the fixed assistant message appended when no
// LLM credential is configured. Missing configuration is not an error
// on the chat path.
const noCredentialReply = "I can't respond right now because no Anthropic API key is configured. " +
	"Set one with `tailfin config anthropic.api_key <key>` or the ANTHROPIC_API_KEY environment variable."

// ChatService is the per-agent conversational interface. It reuses
// the LLM client and agent registry but never touches the workflow
// machinery; all state lives in the agent's message list.
type ChatService struct {
	registry *Registry

	// newChatter builds a chat client, reading the credential fresh
	// on every call. It returns llm.ErrNoCredential when no key is
	// configured.
	newChatter func() (llm.Chatter, error)

	// now is swappable for tests.
	now func() time.Time
}

// NewChatService creates a ChatService.
func NewChatService(registry *Registry, newChatter func() (llm.Chatter, error)) *ChatService {
	return &ChatService{registry: registry, newChatter: newChatter, now: time.Now}
}

// Send appends the user turn to the agent's history immediately, then
// requests an assistant reply. Provider failures become an error-text
// assistant turn rather than a returned error; only an unknown agent
// or a persistence failure is raised.
func (s *ChatService) Send(ctx context.Context, agentID, text string) (*models.ChatMessage, error) {
	a, err := s.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("agent %s not found", agentID)
	}

	a.AppendMessage(models.ChatMessage{
		Role:      models.ChatRoleUser,
		Content:   text,
		Timestamp: s.now(),
	})
	if err := s.registry.store.ReplaceMessages(a.ID, a.Messages); err != nil {
		return nil, err
	}

	reply := s.generateReply(ctx, a)
	a.AppendMessage(reply)
	if err := s.registry.store.ReplaceMessages(a.ID, a.Messages); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *ChatService) generateReply(ctx context.Context, a *models.Agent) models.ChatMessage {
	reply := models.ChatMessage{Role: models.ChatRoleAssistant, Timestamp: s.now()}

	chatter, err := s.newChatter()
	if err != nil {
		if errors.Is(err, llm.ErrNoCredential) {
			reply.Content = noCredentialReply
		} else {
			reply.Content = fmt.Sprintf("Sorry, I hit a problem setting up the connection: %v", err)
		}
		return reply
	}

	text, err := chatter.Chat(ctx, systemPrompt(a), a.Messages)
	if err != nil {
		reply.Content = fmt.Sprintf("Sorry, I couldn't process that request: %v. Please try again.", err)
		return reply
	}

	reply.Content = text
	return reply
}

// systemPrompt builds the persona prompt from the agent's identity,
// with a category-specific capability addendum.
func systemPrompt(a *models.Agent) string {
	prompt := fmt.Sprintf("You are %s, a %s working inside a CRM for a sales team. %s\n"+
		"Be concise and practical. Answer as this persona.",
		a.Name, a.Role, a.Description)

	switch a.Category {
	case models.CategoryCalendarManager:
		prompt += "\nYou can review the user's calendar for conflicts and suggest scheduling changes."
	case models.CategoryTaskManager:
		prompt += "\nYou can review pending tasks, flag overdue work, and suggest priorities."
	}

	return prompt
}
