package interpret

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// Cache stores interpretations keyed by the exact label string.
// An explicit interface keeps cache lifetime testable rather than
// tying it to process lifetime.
type Cache interface {
	Get(label string) (Interpretation, bool)
	Set(label string, in Interpretation)
	Clear()
}

// MapCache is the default in-memory Cache implementation.
type MapCache struct {
	mu      sync.RWMutex
	entries map[string]Interpretation
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[string]Interpretation)}
}

// Get returns the cached interpretation for a label.
func (c *MapCache) Get(label string) (Interpretation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.entries[label]
	return in, ok
}

// Set stores an interpretation for a label.
func (c *MapCache) Set(label string, in Interpretation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[label] = in
}

// Clear drops all cached interpretations.
func (c *MapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Interpretation)
}

// Len returns the number of cached labels.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Interpreter resolves step labels. A nil generator disables LLM
// classification and uses the keyword fallback directly; the fallback
// result is cached too, keeping behavior consistent with the LLM path.
type Interpreter struct {
	cache     Cache
	generator llm.TextGenerator
}

// NewInterpreter creates an Interpreter. generator may be nil.
func NewInterpreter(cache Cache, generator llm.TextGenerator) *Interpreter {
	if cache == nil {
		cache = NewMapCache()
	}
	return &Interpreter{cache: cache, generator: generator}
}

// stepClassification is the JSON shape requested from the LLM.
type stepClassification struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// Interpret resolves a label to an action kind. A cache hit
// short-circuits all further logic, even across agents reusing the
// same label. The result is cached regardless of source.
func (i *Interpreter) Interpret(ctx context.Context, label string) Interpretation {
	if cached, ok := i.cache.Get(label); ok {
		cached.Source = SourceCache
		return cached
	}

	result := i.resolve(ctx, label)
	i.cache.Set(label, result)
	return result
}

func (i *Interpreter) resolve(ctx context.Context, label string) Interpretation {
	if i.generator == nil {
		return ClassifyKeywords(label)
	}

	text, err := i.generator.GenerateText(ctx, classificationPrompt(label))
	if err != nil {
		log.Printf("[interpret] classification request failed for %q, using keyword fallback: %v", label, err)
		return ClassifyKeywords(label)
	}

	var parsed stepClassification
	if err := llm.ExtractJSON(text, &parsed); err != nil {
		log.Printf("[interpret] unparsable classification for %q, using keyword fallback", label)
		return ClassifyKeywords(label)
	}

	action := models.ActionKind(strings.ReplaceAll(strings.TrimSpace(parsed.Action), "-", "_"))
	if !action.Valid() || action == models.ActionUnknown {
		return ClassifyKeywords(label)
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}

	return Interpretation{Action: action, Confidence: confidence, Source: SourceLLM}
}

// classificationPrompt constrains the LLM to the closed action set
// and requests a bare JSON object.
func classificationPrompt(label string) string {
	kinds := models.AllActionKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}

	return fmt.Sprintf(`Classify this CRM workflow step into exactly one action.

Step: %q

Valid actions: %s

Respond with a JSON object only, no other text:
{"action": "<one of the valid actions>", "confidence": <0.0-1.0>}`,
		label, strings.Join(names, ", "))
}
