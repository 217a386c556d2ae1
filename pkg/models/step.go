package models

// StepKind is an advisory grouping for workflow steps. It does not
// affect how a step executes; the resolved action does.
type StepKind string

const (
	StepKindAction       StepKind = "action"
	StepKindCondition    StepKind = "condition"
	StepKindNotification StepKind = "notification"
)

// ActionKind is the closed set of executable behaviors a step may
// resolve to. Steps whose labels cannot be interpreted resolve to
// ActionUnknown and are skipped silently.
type ActionKind string

const (
	ActionFetchEmails      ActionKind = "fetch_emails"
	ActionAnalyzeEmails    ActionKind = "analyze_emails"
	ActionNotifyUser       ActionKind = "notify_user"
	ActionFetchCalendar    ActionKind = "fetch_calendar"
	ActionAnalyzeCalendar  ActionKind = "analyze_calendar"
	ActionFetchTasks       ActionKind = "fetch_tasks"
	ActionAnalyzeTasks     ActionKind = "analyze_tasks"
	ActionFetchCRMData     ActionKind = "fetch_crm_data"
	ActionAnalyzeSupport   ActionKind = "analyze_support"
	ActionGenerateInsights ActionKind = "generate_insights"
	ActionScoreLeads       ActionKind = "score_leads"
	ActionPredictDeals     ActionKind = "predict_deals"
	ActionForecastRevenue  ActionKind = "forecast_revenue"
	ActionUnknown          ActionKind = "unknown"
)

// Valid returns true if the action kind is a known value.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionFetchEmails, ActionAnalyzeEmails, ActionNotifyUser,
		ActionFetchCalendar, ActionAnalyzeCalendar, ActionFetchTasks,
		ActionAnalyzeTasks, ActionFetchCRMData, ActionAnalyzeSupport,
		ActionGenerateInsights, ActionScoreLeads, ActionPredictDeals,
		ActionForecastRevenue, ActionUnknown:
		return true
	default:
		return false
	}
}

// AllActionKinds lists every executable action kind except ActionUnknown.
// Used to constrain LLM-assisted step classification.
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionFetchEmails, ActionAnalyzeEmails, ActionNotifyUser,
		ActionFetchCalendar, ActionAnalyzeCalendar, ActionFetchTasks,
		ActionAnalyzeTasks, ActionFetchCRMData, ActionAnalyzeSupport,
		ActionGenerateInsights, ActionScoreLeads, ActionPredictDeals,
		ActionForecastRevenue,
	}
}

// StepData is an optional structured payload that pre-declares the
// resolved action and parameters for a step. When Action is set,
// label interpretation is skipped.
type StepData struct {
	// Action is the pre-declared action kind, if any.
	Action ActionKind `json:"action,omitempty"`
	// MaxResults limits how many items a fetch action retrieves.
	MaxResults int `json:"max_results,omitempty"`
}

// Step is one ordered unit of an agent's workflow. Steps have no
// success or failure state; a step with nothing to do is a silent
// no-op for that cycle.
type Step struct {
	// ID is unique within the agent.
	ID string `json:"id"`
	// Kind is the advisory step grouping.
	Kind StepKind `json:"kind"`
	// Label is the human-readable step text, interpreted at run time
	// unless Data pre-declares an action.
	Label string `json:"label"`
	// Data optionally pre-declares the action and parameters.
	Data *StepData `json:"data,omitempty"`
}
