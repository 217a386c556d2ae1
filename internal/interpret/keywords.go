// Package interpret resolves free-text workflow step labels to
// executable action kinds. Resolution prefers a memoized cache, then
// optional LLM-assisted classification, then a deterministic keyword
// fallback, so the engine degrades gracefully without a credential.
package interpret

import (
	"strings"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

// ActionKeywords is the single source of truth for the keyword
// fallback classifier. Steps are authored as free text by users, so
// the triggers are intentionally broad.
type ActionKeywords struct {
	// Fetch keywords indicate data-retrieval steps.
	Fetch []string
	// Analyze keywords indicate analysis steps.
	Analyze []string
	// Notify keywords indicate the terminal notification step.
	Notify []string
}

// DefaultActionKeywords returns the authoritative keyword triggers.
var DefaultActionKeywords = ActionKeywords{
	Fetch:   []string{"fetch", "get"},
	Analyze: []string{"analyze", "check", "review", "prioritize"},
	Notify:  []string{"notify", "alert", "tell", "inform"},
}

// Interpretation is a resolved action with confidence information.
type Interpretation struct {
	// Action is the resolved action kind.
	Action models.ActionKind
	// Confidence is how confident the resolution is (0.0-1.0).
	Confidence float64
	// Source records whether the result came from the llm or the
	// keyword fallback.
	Source string
}

const (
	// SourceLLM marks results produced by LLM classification.
	SourceLLM = "llm"
	// SourceKeyword marks results produced by the keyword fallback.
	SourceKeyword = "keyword"
	// SourceCache marks results served from the memoization cache.
	SourceCache = "cache"
)

// ClassifyKeywords resolves a label deterministically by
// case-insensitive substring match. Labels that match no trigger
// resolve to ActionUnknown with zero confidence.
func ClassifyKeywords(label string) Interpretation {
	lower := strings.ToLower(label)

	if containsAny(lower, DefaultActionKeywords.Fetch) {
		return Interpretation{Action: fetchVariant(lower), Confidence: 0.7, Source: SourceKeyword}
	}

	if containsAny(lower, DefaultActionKeywords.Analyze) {
		action, confidence := analyzeVariant(lower)
		return Interpretation{Action: action, Confidence: confidence, Source: SourceKeyword}
	}

	if containsAny(lower, DefaultActionKeywords.Notify) {
		return Interpretation{Action: models.ActionNotifyUser, Confidence: 0.7, Source: SourceKeyword}
	}

	return Interpretation{Action: models.ActionUnknown, Confidence: 0, Source: SourceKeyword}
}

// fetchVariant picks the fetch action by secondary keyword.
func fetchVariant(lower string) models.ActionKind {
	switch {
	case strings.Contains(lower, "calendar"), strings.Contains(lower, "meeting"),
		strings.Contains(lower, "event"):
		return models.ActionFetchCalendar
	case strings.Contains(lower, "task"), strings.Contains(lower, "todo"):
		return models.ActionFetchTasks
	case strings.Contains(lower, "crm"), strings.Contains(lower, "lead"),
		strings.Contains(lower, "deal"):
		return models.ActionFetchCRMData
	default:
		return models.ActionFetchEmails
	}
}

// analyzeVariant picks the analysis action and confidence by
// secondary keyword. Calendar and task checks run first so labels
// like "prioritize tasks" resolve to the task analyzer rather than
// lead scoring.
func analyzeVariant(lower string) (models.ActionKind, float64) {
	switch {
	case strings.Contains(lower, "calendar"), strings.Contains(lower, "meeting"),
		strings.Contains(lower, "schedule"):
		return models.ActionAnalyzeCalendar, 0.7
	case strings.Contains(lower, "task"), strings.Contains(lower, "todo"):
		return models.ActionAnalyzeTasks, 0.7
	case strings.Contains(lower, "support"), strings.Contains(lower, "sentiment"),
		strings.Contains(lower, "ticket"):
		return models.ActionAnalyzeSupport, 0.75
	case strings.Contains(lower, "insight"), strings.Contains(lower, "opportunit"),
		strings.Contains(lower, "trend"):
		return models.ActionGenerateInsights, 0.8
	case strings.Contains(lower, "score"), strings.Contains(lower, "priorit"):
		return models.ActionScoreLeads, 0.75
	case strings.Contains(lower, "predict"), strings.Contains(lower, "propensity"):
		return models.ActionPredictDeals, 0.75
	case strings.Contains(lower, "forecast"), strings.Contains(lower, "revenue"):
		return models.ActionForecastRevenue, 0.75
	default:
		return models.ActionAnalyzeEmails, 0.7
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
