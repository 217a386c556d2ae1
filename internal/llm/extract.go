package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be located in a
// response. Call sites treat this as a soft failure and fall back to
// a conservative default rather than propagating it.
var ErrNoJSON = errors.New("no JSON object found in response")

// ExtractJSON performs best-effort structured extraction from LLM
// response text. It tolerates surrounding prose and markdown code
// fences, locating the first JSON object in the text and unmarshaling
// it into v.
func ExtractJSON(text string, v any) error {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ErrNoJSON
	}

	return json.Unmarshal([]byte(text[start:end+1]), v)
}
