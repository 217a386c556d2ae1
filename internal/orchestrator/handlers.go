package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tailfin-crm/tailfin/internal/interpret"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

const (
	defaultEmailFetchLimit    = 10
	defaultCalendarFetchLimit = 5
)

// handlerFunc executes a single resolved workflow action against the
// shared execution context. Handlers accumulate findings; only
// notify_user flushes them to the sink.
type handlerFunc func(o *Orchestrator, ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error)

var handlers = map[models.ActionKind]handlerFunc{
	models.ActionFetchEmails:      (*Orchestrator).handleFetchEmails,
	models.ActionAnalyzeEmails:    (*Orchestrator).handleAnalyzeEmails,
	models.ActionFetchCalendar:    (*Orchestrator).handleFetchCalendar,
	models.ActionAnalyzeCalendar:  (*Orchestrator).handleAnalyzeCalendar,
	models.ActionFetchTasks:       (*Orchestrator).handleFetchTasks,
	models.ActionAnalyzeTasks:     (*Orchestrator).handleAnalyzeTasks,
	models.ActionFetchCRMData:     (*Orchestrator).handleFetchCRMData,
	models.ActionAnalyzeSupport:   (*Orchestrator).handleAnalyzeSupport,
	models.ActionGenerateInsights: (*Orchestrator).handleGenerateInsights,
	models.ActionScoreLeads:       (*Orchestrator).handleScoreLeads,
	models.ActionPredictDeals:     (*Orchestrator).handlePredictDeals,
	models.ActionForecastRevenue:  (*Orchestrator).handleForecastRevenue,
	models.ActionNotifyUser:       (*Orchestrator).handleNotifyUser,
}

func fetchLimit(step models.Step, def int64) int64 {
	if step.Data != nil && step.Data.MaxResults > 0 {
		return int64(step.Data.MaxResults)
	}
	return def
}

func (o *Orchestrator) handleFetchEmails(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if o.mail == nil {
		log.Printf("[cycle] %s: gmail not connected, skipping email fetch", agent.Name)
		return skipped("gmail not connected"), nil
	}

	msgs, err := o.mail.RecentMessages(ctx, fetchLimit(step, o.emailLimit), defaultMailQuery)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching emails: %w", err)
	}

	ec.Messages = msgs
	ec.NewMessages = ec.NewMessages[:0]
	for _, m := range msgs {
		seen, err := o.processed.Has(m.ID)
		if err != nil {
			return Outcome{}, fmt.Errorf("checking processed ledger: %w", err)
		}
		if !seen {
			ec.NewMessages = append(ec.NewMessages, m)
		}
	}

	debugLog("%s: fetched %d emails, %d new", agent.Name, len(msgs), len(ec.NewMessages))
	return ran(0), nil
}

func (o *Orchestrator) handleAnalyzeEmails(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if len(ec.NewMessages) == 0 {
		return skipped("no new emails"), nil
	}

	// Mark everything processed up front: a mid-batch failure must not
	// cause duplicate notifications on the next cycle.
	ids := make([]string, len(ec.NewMessages))
	for i, m := range ec.NewMessages {
		ids[i] = m.ID
	}
	if err := o.processed.Add(ids...); err != nil {
		return Outcome{}, fmt.Errorf("recording processed emails: %w", err)
	}

	findings := 0
	for _, m := range ec.NewMessages {
		result, err := o.classifyEmail(ctx, gen, m)
		if err != nil {
			return Outcome{}, fmt.Errorf("classifying email %s: %w", m.ID, err)
		}
		if !result.Important {
			continue
		}
		ec.AddFinding(Finding{
			Category: CategoryEmail,
			Title:    fmt.Sprintf("Important email from %s", m.From),
			Detail:   fmt.Sprintf("%s: %s", m.Subject, result.Reason),
			Severity: SeverityHigh,
		})
		findings++
	}

	return ran(findings), nil
}

func (o *Orchestrator) handleFetchCalendar(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if o.calendar == nil {
		log.Printf("[cycle] %s: calendar not connected, skipping event fetch", agent.Name)
		return skipped("calendar not connected"), nil
	}

	events, err := o.calendar.UpcomingEvents(ctx, fetchLimit(step, o.calendarLimit))
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching calendar events: %w", err)
	}

	ec.CalendarEvents = events
	debugLog("%s: fetched %d upcoming events", agent.Name, len(events))
	return ran(0), nil
}

func (o *Orchestrator) handleAnalyzeCalendar(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if len(ec.CalendarEvents) == 0 {
		return skipped("no upcoming events"), nil
	}

	result, err := o.analyzeCalendar(ctx, gen, ec.CalendarEvents)
	if err != nil {
		return Outcome{}, fmt.Errorf("analyzing calendar: %w", err)
	}

	findings := 0
	for _, c := range result.Conflicts {
		ec.AddFinding(Finding{
			Category: CategoryCalendar,
			Title:    "Scheduling conflict",
			Detail:   c,
			Severity: SeverityHigh,
		})
		findings++
	}
	for _, ev := range result.ImportantEvents {
		ec.AddFinding(Finding{
			Category: CategoryCalendar,
			Title:    "Event needs preparation",
			Detail:   ev,
			Severity: SeverityMedium,
		})
		findings++
	}
	if result.Summary != "" {
		ec.Summary = result.Summary
	}

	return ran(findings), nil
}

func (o *Orchestrator) handleFetchTasks(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	tasks, err := o.crm.PendingTasks()
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching pending tasks: %w", err)
	}

	ec.Tasks = tasks
	debugLog("%s: fetched %d pending tasks", agent.Name, len(tasks))
	return ran(0), nil
}

func (o *Orchestrator) handleAnalyzeTasks(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if len(ec.Tasks) == 0 {
		return skipped("no pending tasks"), nil
	}

	result, err := o.analyzeTasks(ctx, gen, ec.Tasks)
	if err != nil {
		return Outcome{}, fmt.Errorf("analyzing tasks: %w", err)
	}

	findings := 0
	for _, t := range result.TopPriorities {
		ec.AddFinding(Finding{
			Category: CategoryTask,
			Title:    "Priority task",
			Detail:   t,
			Severity: SeverityHigh,
		})
		findings++
	}
	for _, t := range result.Overdue {
		ec.AddFinding(Finding{
			Category: CategoryTask,
			Title:    "Overdue task",
			Detail:   t,
			Severity: SeverityCritical,
		})
		findings++
	}
	for _, f := range result.FollowUps {
		ec.AddFinding(Finding{
			Category: CategoryFollowUp,
			Title:    "Follow-up suggestion",
			Detail:   f,
			Severity: SeverityMedium,
		})
		findings++
	}
	if result.Summary != "" {
		ec.Summary = result.Summary
	}

	return ran(findings), nil
}

func (o *Orchestrator) handleFetchCRMData(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	snap, err := o.crm.Snapshot()
	if err != nil {
		return Outcome{}, fmt.Errorf("fetching CRM snapshot: %w", err)
	}

	ec.CRM = snap
	debugLog("%s: fetched CRM snapshot (%d leads, %d deals)", agent.Name, len(snap.Leads), len(snap.Deals))
	return ran(0), nil
}

func (o *Orchestrator) handleAnalyzeSupport(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if len(ec.NewMessages) == 0 {
		return skipped("no new messages"), nil
	}

	findings := 0
	for _, m := range ec.NewMessages {
		result, err := o.analyzeSentiment(ctx, gen, m)
		if err != nil {
			return Outcome{}, fmt.Errorf("analyzing sentiment of %s: %w", m.ID, err)
		}
		if !result.needsAttention() {
			continue
		}
		sev := SeverityMedium
		if result.Urgent {
			sev = SeverityHigh
		}
		ec.AddFinding(Finding{
			Category: CategoryEmail,
			Title:    fmt.Sprintf("Customer sentiment: %s", result.Sentiment),
			Detail:   fmt.Sprintf("%s from %s: %s", m.Subject, m.From, result.Reason),
			Severity: sev,
		})
		findings++
	}

	return ran(findings), nil
}

func (o *Orchestrator) handleGenerateInsights(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if ec.CRM == nil || len(ec.CRM.Deals) == 0 {
		return skipped("no CRM data to analyze"), nil
	}

	result, err := o.generateInsights(ctx, gen, ec.CRM)
	if err != nil {
		return Outcome{}, fmt.Errorf("generating insights: %w", err)
	}

	findings := 0
	if result.StrategicAdvice != "" {
		ec.AddFinding(Finding{
			Category: CategoryStrategy,
			Title:    "Strategic overview",
			Detail:   result.StrategicAdvice,
			Severity: SeverityLow,
		})
		findings++
	}
	for _, op := range result.Opportunities {
		ec.AddFinding(Finding{
			Category: CategoryOpportunity,
			Title:    "Opportunity",
			Detail:   op,
			Severity: SeverityMedium,
		})
		findings++
	}
	for _, r := range result.Risks {
		ec.AddFinding(Finding{
			Category: CategoryRisk,
			Title:    "Pipeline risk",
			Detail:   r,
			Severity: SeverityHigh,
		})
		findings++
	}
	findings += addLeadScoreFindings(ec, result.LeadScores)
	findings += addDealPredictionFindings(ec, result.DealPredictions)
	findings += addForecastFinding(ec, result.RevenueForecast)

	return ran(findings), nil
}

func (o *Orchestrator) handleScoreLeads(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if ec.CRM == nil || len(ec.CRM.Leads) == 0 {
		return skipped("no leads to score"), nil
	}

	result, err := o.generateInsights(ctx, gen, ec.CRM)
	if err != nil {
		return Outcome{}, fmt.Errorf("scoring leads: %w", err)
	}
	return ran(addLeadScoreFindings(ec, result.LeadScores)), nil
}

func (o *Orchestrator) handlePredictDeals(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if ec.CRM == nil || len(ec.CRM.Deals) == 0 {
		return skipped("no deals to predict"), nil
	}

	result, err := o.generateInsights(ctx, gen, ec.CRM)
	if err != nil {
		return Outcome{}, fmt.Errorf("predicting deals: %w", err)
	}
	return ran(addDealPredictionFindings(ec, result.DealPredictions)), nil
}

func (o *Orchestrator) handleForecastRevenue(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if ec.CRM == nil || len(ec.CRM.Deals) == 0 {
		return skipped("no deals to forecast"), nil
	}

	result, err := o.generateInsights(ctx, gen, ec.CRM)
	if err != nil {
		return Outcome{}, fmt.Errorf("forecasting revenue: %w", err)
	}
	return ran(addForecastFinding(ec, result.RevenueForecast)), nil
}

func addLeadScoreFindings(ec *Context, scores []leadScore) int {
	n := 0
	for _, s := range scores {
		sev := SeverityMedium
		if s.Score > 80 {
			sev = SeverityHigh
		}
		ec.AddFinding(Finding{
			Category: CategoryLeadScore,
			Title:    fmt.Sprintf("Lead score: %s (%d)", s.Lead, s.Score),
			Detail:   s.Reason,
			Severity: sev,
		})
		n++
	}
	return n
}

func addDealPredictionFindings(ec *Context, preds []dealPrediction) int {
	n := 0
	for _, p := range preds {
		sev := SeverityMedium
		if p.Probability < 40 {
			sev = SeverityHigh
		}
		ec.AddFinding(Finding{
			Category: CategoryDealPrediction,
			Title:    fmt.Sprintf("Deal outlook: %s (%d%%)", p.Deal, p.Probability),
			Detail:   p.Reason,
			Severity: sev,
		})
		n++
	}
	return n
}

func addForecastFinding(ec *Context, f *revenueForecast) int {
	if f == nil {
		return 0
	}
	ec.AddFinding(Finding{
		Category: CategoryRevenueForecast,
		Title:    fmt.Sprintf("Revenue forecast: %s", f.Outlook),
		Detail:   fmt.Sprintf("Predicted $%.0f at %d%% confidence", f.PredictedAmount, f.Confidence),
		Severity: SeverityMedium,
	})
	return 1
}

// insightTypeFor maps a finding category to its persisted insight type.
func insightTypeFor(category string) models.InsightType {
	switch category {
	case CategoryEmail:
		return models.InsightSentimentAnalysis
	case CategoryCalendar:
		return models.InsightDealRisk
	case CategoryTask, CategoryFollowUp:
		return models.InsightFollowUpSuggestion
	case CategoryLeadScore:
		return models.InsightLeadScore
	case CategoryDealPrediction:
		return models.InsightDealPrediction
	case CategoryRevenueForecast:
		return models.InsightRevenueForecast
	default:
		return models.InsightTrendPrediction
	}
}

// insightConfidence is recorded on every persisted insight. The
// per-finding confidence from the model is not retained.
const insightConfidence = 90

func (o *Orchestrator) handleNotifyUser(ctx context.Context, gen llm.TextGenerator, agent *models.Agent, step models.Step, ec *Context) (Outcome, error) {
	if len(ec.Findings) == 0 {
		return skipped("nothing to report"), nil
	}

	for _, f := range ec.Findings {
		sev := models.SeverityWarning
		if f.Severity == SeverityHigh || f.Severity == SeverityCritical {
			sev = models.SeverityError
		}
		if err := o.sink.Notify(models.Notification{
			Title:    f.Title,
			Message:  f.Detail,
			Severity: sev,
			Category: f.Category,
		}); err != nil {
			return Outcome{}, fmt.Errorf("emitting notification: %w", err)
		}
		if err := o.sink.Persist(models.Insight{
			Type:              insightTypeFor(f.Category),
			Title:             f.Title,
			Description:       f.Detail,
			Confidence:        insightConfidence,
			RelatedTo:         agent.Name,
			RecommendedAction: recommendedActionFor(f.Category),
		}); err != nil {
			return Outcome{}, fmt.Errorf("persisting insight: %w", err)
		}
	}

	n := len(ec.Findings)
	if ec.Summary != "" {
		debugLog("%s: %s", agent.Name, ec.Summary)
	}
	log.Printf("[cycle] %s: delivered %d findings", agent.Name, n)

	// Delivered findings are consumed so a later notify step in the
	// same cycle does not repeat them.
	ec.Findings = ec.Findings[:0]
	return ran(n), nil
}

func recommendedActionFor(category string) string {
	switch category {
	case CategoryEmail:
		return "Review and respond promptly"
	case CategoryCalendar:
		return "Review your schedule"
	case CategoryTask, CategoryFollowUp:
		return "Follow up with the contact"
	case CategoryLeadScore:
		return "Prioritize outreach to this lead"
	case CategoryDealPrediction, CategoryRevenueForecast:
		return "Review the deal pipeline"
	default:
		return "Review the details"
	}
}

// resolveAction determines which action a step maps to. An explicit
// valid action on the step wins; otherwise the step label is
// interpreted. Steps that resolve to unknown are skipped silently.
func (o *Orchestrator) resolveAction(ctx context.Context, step models.Step) models.ActionKind {
	if step.Data != nil && step.Data.Action != "" && step.Data.Action.Valid() && step.Data.Action != models.ActionUnknown {
		return step.Data.Action
	}

	label := strings.TrimSpace(step.Label)
	if label == "" {
		return models.ActionUnknown
	}

	if o.interpreter == nil {
		return interpret.ClassifyKeywords(label).Action
	}
	return o.interpreter.Interpret(ctx, label).Action
}
