package llm

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

const (
	maxCompletionTokens = 2048

	// chatMaxAttempts bounds the exponential backoff on the chat path.
	chatMaxAttempts = 3
	chatBackoffBase = time.Second
)

// TextGenerator is the single-prompt contract consumed by the step
// interpreter and the scan-cycle analysis handlers.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Chatter is the multi-turn contract consumed by the agent chat
// interface.
type Chatter interface {
	Chat(ctx context.Context, system string, turns []models.ChatMessage) (string, error)
}

// GenerateText issues a single completion call and returns the
// concatenated text blocks of the response. Errors are classified
// onto the package sentinels; the caller decides whether to retry.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxCompletionTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyErr(err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return collectText(resp), nil
}

// Chat sends the full turn history plus a system prompt and returns
// the assistant reply. Rate-limit failures are retried with bounded
// exponential backoff; other failures return immediately.
func (c *Client) Chat(ctx context.Context, system string, turns []models.ChatMessage) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == models.ChatRoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxCompletionTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var lastErr error
	delay := chatBackoffBase
	for attempt := 1; attempt <= chatMaxAttempts; attempt++ {
		resp, err := c.sdk().Messages.New(ctx, params)
		if err == nil {
			c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)
			return collectText(resp), nil
		}

		lastErr = classifyErr(err)
		if !IsRateLimited(lastErr) || attempt == chatMaxAttempts {
			return "", lastErr
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}

// collectText concatenates all text blocks in a response.
func collectText(resp *anthropic.Message) string {
	var out string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += variant.Text
		}
	}
	return out
}
