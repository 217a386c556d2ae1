package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

func testAgent() *models.Agent {
	return &models.Agent{ID: "a1", Name: "Worker", Status: models.AgentStatusActive}
}

func TestResolveActionExplicitWins(t *testing.T) {
	fx := newFixture(t)

	step := models.Step{
		Label: "Fetch new emails",
		Data:  &models.StepData{Action: models.ActionFetchCalendar},
	}
	if got := fx.o.resolveAction(context.Background(), step); got != models.ActionFetchCalendar {
		t.Errorf("resolveAction = %s, want explicit fetch_calendar", got)
	}
}

func TestResolveActionInvalidDataFallsToLabel(t *testing.T) {
	fx := newFixture(t)

	step := models.Step{
		Label: "Fetch new emails",
		Data:  &models.StepData{Action: "do_magic"},
	}
	if got := fx.o.resolveAction(context.Background(), step); got != models.ActionFetchEmails {
		t.Errorf("resolveAction = %s, want label-derived fetch_emails", got)
	}
}

func TestResolveActionEmptyLabel(t *testing.T) {
	fx := newFixture(t)

	if got := fx.o.resolveAction(context.Background(), models.Step{Label: "   "}); got != models.ActionUnknown {
		t.Errorf("resolveAction = %s, want unknown for blank label", got)
	}
}

func TestFetchLimitPrefersStepData(t *testing.T) {
	step := models.Step{Data: &models.StepData{MaxResults: 3}}
	if got := fetchLimit(step, 10); got != 3 {
		t.Errorf("fetchLimit = %d, want 3", got)
	}
	if got := fetchLimit(models.Step{}, 10); got != 10 {
		t.Errorf("fetchLimit = %d, want default 10", got)
	}
}

func TestHandleFetchEmailsNotConnected(t *testing.T) {
	fx := newFixture(t)
	fx.o.mail = nil

	out, err := fx.o.handleFetchEmails(context.Background(), fx.gen, testAgent(), models.Step{}, NewContext())
	if err != nil {
		t.Fatalf("handleFetchEmails: %v", err)
	}
	if out.Status != StatusSkipped {
		t.Errorf("status = %s, want skipped when gmail is absent", out.Status)
	}
}

func TestHandleAnalyzeEmailsMarksBeforeClassifying(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.NewMessages = []google.Message{
		{ID: "m1", From: "a@example.com", Subject: "One"},
		{ID: "m2", From: "b@example.com", Subject: "Two"},
	}
	fx.gen.errs = []error{errors.New("provider unavailable")}

	_, err := fx.o.handleAnalyzeEmails(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err == nil {
		t.Fatal("expected the classification failure to propagate")
	}

	// Even a failed batch stays marked so the next cycle does not
	// re-notify about the same mail.
	for _, id := range []string{"m1", "m2"} {
		if !fx.ledger.seen[id] {
			t.Errorf("message %s not marked processed after failure", id)
		}
	}
}

func TestHandleAnalyzeCalendarNoEvents(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.o.handleAnalyzeCalendar(context.Background(), fx.gen, testAgent(), models.Step{}, NewContext())
	if err != nil {
		t.Fatalf("handleAnalyzeCalendar: %v", err)
	}
	if out.Status != StatusSkipped {
		t.Errorf("status = %s, want skipped", out.Status)
	}
	if fx.gen.calls != 0 {
		t.Error("generator called with nothing to analyze")
	}
}

func TestHandleAnalyzeTasksFindings(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.Tasks = []models.CRMTask{{ID: "t1", Title: "Call Dana", Priority: "high"}}
	fx.gen.responses = []string{
		`{"topPriorities": ["Call Dana"], "overdue": ["Send contract"],
		  "followUps": ["Ping the Corival contact"], "summary": "One urgent call"}`,
	}

	out, err := fx.o.handleAnalyzeTasks(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("handleAnalyzeTasks: %v", err)
	}
	if out.Findings != 3 {
		t.Fatalf("findings = %d, want 3", out.Findings)
	}

	severities := map[FindingSeverity]int{}
	categories := map[string]int{}
	for _, f := range ec.Findings {
		severities[f.Severity]++
		categories[f.Category]++
	}
	if severities[SeverityHigh] != 1 || severities[SeverityCritical] != 1 || severities[SeverityMedium] != 1 {
		t.Errorf("severities = %v", severities)
	}
	if categories[CategoryTask] != 2 || categories[CategoryFollowUp] != 1 {
		t.Errorf("categories = %v", categories)
	}
	if ec.Summary != "One urgent call" {
		t.Errorf("summary = %q", ec.Summary)
	}
}

func TestHandleGenerateInsightsRequiresDeals(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.CRM = &models.CRMSnapshot{Leads: []models.Lead{{ID: "l1", Name: "Dana"}}}

	out, err := fx.o.handleGenerateInsights(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("handleGenerateInsights: %v", err)
	}
	if out.Status != StatusSkipped {
		t.Errorf("status = %s, want skipped without deals", out.Status)
	}
}

func TestHandleScoreLeadsSubset(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.CRM = &models.CRMSnapshot{
		Leads: []models.Lead{{ID: "l1", Name: "Dana Whitfield", Score: 82}},
	}
	// The full analysis comes back, but only lead scores become findings.
	fx.gen.responses = []string{
		`{"risks": ["ignored"], "opportunities": ["ignored"],
		  "leadScores": [{"lead": "Dana Whitfield", "score": 85, "reason": "engaged"}]}`,
	}

	out, err := fx.o.handleScoreLeads(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("handleScoreLeads: %v", err)
	}
	if out.Findings != 1 || len(ec.Findings) != 1 {
		t.Fatalf("findings = %d / %d, want 1", out.Findings, len(ec.Findings))
	}
	f := ec.Findings[0]
	if f.Category != CategoryLeadScore || f.Severity != SeverityHigh {
		t.Errorf("finding = %+v", f)
	}
}

func TestHandlePredictDealsSeverity(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.CRM = &models.CRMSnapshot{
		Deals: []models.Deal{{ID: "d1", Title: "Corival rollout", Probability: 20}},
	}
	fx.gen.responses = []string{
		`{"dealPredictions": [
			{"deal": "Corival rollout", "probability": 20, "reason": "stalled"},
			{"deal": "Northgate expansion", "probability": 70, "reason": "on track"}]}`,
	}

	out, err := fx.o.handlePredictDeals(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("handlePredictDeals: %v", err)
	}
	if out.Findings != 2 {
		t.Fatalf("findings = %d, want 2", out.Findings)
	}
	if ec.Findings[0].Severity != SeverityHigh || ec.Findings[1].Severity != SeverityMedium {
		t.Errorf("severities = %s, %s", ec.Findings[0].Severity, ec.Findings[1].Severity)
	}
}

func TestHandleNotifyUserConsumesFindings(t *testing.T) {
	fx := newFixture(t)
	ec := NewContext()
	ec.AddFinding(Finding{Category: CategoryEmail, Title: "Urgent email", Detail: "d", Severity: SeverityHigh})
	ec.AddFinding(Finding{Category: CategoryRevenueForecast, Title: "Forecast", Detail: "d", Severity: SeverityMedium})

	out, err := fx.o.handleNotifyUser(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("handleNotifyUser: %v", err)
	}
	if out.Findings != 2 || len(fx.sink.notifications) != 2 || len(fx.sink.insights) != 2 {
		t.Fatalf("delivered %d/%d/%d, want 2 each",
			out.Findings, len(fx.sink.notifications), len(fx.sink.insights))
	}
	if len(ec.Findings) != 0 {
		t.Error("findings not consumed after delivery")
	}

	// A second notify in the same cycle has nothing left.
	out, err = fx.o.handleNotifyUser(context.Background(), fx.gen, testAgent(), models.Step{}, ec)
	if err != nil {
		t.Fatalf("second handleNotifyUser: %v", err)
	}
	if out.Status != StatusSkipped {
		t.Errorf("second notify status = %s, want skipped", out.Status)
	}
}

func TestInsightTypeMapping(t *testing.T) {
	cases := map[string]models.InsightType{
		CategoryEmail:           models.InsightSentimentAnalysis,
		CategoryCalendar:        models.InsightDealRisk,
		CategoryTask:            models.InsightFollowUpSuggestion,
		CategoryFollowUp:        models.InsightFollowUpSuggestion,
		CategoryLeadScore:       models.InsightLeadScore,
		CategoryDealPrediction:  models.InsightDealPrediction,
		CategoryRevenueForecast: models.InsightRevenueForecast,
		CategoryStrategy:        models.InsightTrendPrediction,
		CategoryRisk:            models.InsightTrendPrediction,
		"anything-else":         models.InsightTrendPrediction,
	}
	for category, want := range cases {
		if got := insightTypeFor(category); got != want {
			t.Errorf("insightTypeFor(%s) = %s, want %s", category, got, want)
		}
	}
}
