package orchestrator

import (
	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// FindingSeverity ranks an accumulated finding.
type FindingSeverity string

const (
	SeverityLow      FindingSeverity = "low"
	SeverityMedium   FindingSeverity = "medium"
	SeverityHigh     FindingSeverity = "high"
	SeverityCritical FindingSeverity = "critical"
)

// Finding categories. The notify handler maps these onto the fixed
// insight-type enumeration; unrecognized categories map to
// trend_prediction.
const (
	CategoryEmail           = "email"
	CategoryCalendar        = "calendar"
	CategoryTask            = "task"
	CategoryFollowUp        = "follow_up"
	CategoryLeadScore       = "lead_score"
	CategoryDealPrediction  = "deal_prediction"
	CategoryRevenueForecast = "revenue_forecast"
	CategoryStrategy        = "strategy"
	CategoryRisk            = "risk"
	CategoryOpportunity     = "opportunity"
)

// Finding is one urgent item accumulated during an agent's cycle,
// later converted to a notification and an insight.
type Finding struct {
	Category string
	Title    string
	Detail   string
	Severity FindingSeverity
}

// Context is the per-agent, per-cycle working memory threaded through
// step handlers in order. It is discarded when the agent's cycle
// ends; nothing in it persists except through explicit side effects.
type Context struct {
	// Messages holds the most recent fetch-emails result.
	Messages []google.Message
	// NewMessages is the subset of Messages absent from the global
	// processed-item ledger.
	NewMessages []google.Message
	// CalendarEvents holds the most recent fetch-calendar result.
	CalendarEvents []google.Event
	// Tasks holds the pending CRM tasks.
	Tasks []models.CRMTask
	// CRM holds the leads/deals snapshot.
	CRM *models.CRMSnapshot
	// Findings accumulates urgent items across handlers.
	Findings []Finding
	// Summary is a running text summary; last writer wins.
	Summary string
}

// NewContext returns an empty execution context.
func NewContext() *Context {
	return &Context{}
}

// AddFinding appends an urgent item.
func (c *Context) AddFinding(f Finding) {
	c.Findings = append(c.Findings, f)
}

// OutcomeStatus reports what a handler did with a step.
type OutcomeStatus string

const (
	// StatusRan indicates the handler executed its behavior.
	StatusRan OutcomeStatus = "ran"
	// StatusSkipped indicates the handler's precondition did not
	// hold; the step is a silent no-op, not a failure.
	StatusSkipped OutcomeStatus = "skipped"
)

// Outcome is the explicit result of dispatching one step. The cycle
// treats skip and success the same way; the distinction exists for
// observability and tests.
type Outcome struct {
	Status OutcomeStatus
	// Findings is how many urgent items the handler produced.
	Findings int
	// Reason explains a skip, if any.
	Reason string
}

func ran(findings int) Outcome {
	return Outcome{Status: StatusRan, Findings: findings}
}

func skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}
