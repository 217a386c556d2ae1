package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// scriptedGenerator returns canned responses in order. An entry in
// errs takes precedence over the response at the same index.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", fmt.Errorf("unexpected generator call %d", i)
}

type fakeMail struct {
	msgs []google.Message
	err  error
}

func (f *fakeMail) RecentMessages(ctx context.Context, max int64, query string) ([]google.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if int64(len(f.msgs)) > max {
		return f.msgs[:max], nil
	}
	return f.msgs, nil
}

type fakeCalendar struct {
	events []google.Event
	err    error
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context, max int64) ([]google.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeCRM struct {
	tasks []models.CRMTask
	snap  models.CRMSnapshot
}

func (f *fakeCRM) PendingTasks() ([]models.CRMTask, error) { return f.tasks, nil }
func (f *fakeCRM) Snapshot() (*models.CRMSnapshot, error) {
	snap := f.snap
	return &snap, nil
}

type fakeLedger struct {
	seen map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{seen: map[string]bool{}} }

func (f *fakeLedger) Has(itemID string) (bool, error) { return f.seen[itemID], nil }
func (f *fakeLedger) Add(itemIDs ...string) error {
	for _, id := range itemIDs {
		f.seen[id] = true
	}
	return nil
}

type fakeSink struct {
	notifications []models.Notification
	insights      []models.Insight
}

func (f *fakeSink) Notify(n models.Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeSink) Persist(i models.Insight) error {
	f.insights = append(f.insights, i)
	return nil
}

// fixture wires an orchestrator over fakes, a real registry, and a
// controllable clock. Sleeps are recorded instead of slept.
type fixture struct {
	o        *Orchestrator
	registry *agent.Registry
	gen      *scriptedGenerator
	mail     *fakeMail
	calendar *fakeCalendar
	crm      *fakeCRM
	ledger   *fakeLedger
	sink     *fakeSink

	clock  time.Time
	sleeps []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := state.Open(filepath.Join(t.TempDir(), "tailfin.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fx := &fixture{
		registry: agent.NewRegistry(state.NewAgentStore(db)),
		gen:      &scriptedGenerator{},
		mail:     &fakeMail{},
		calendar: &fakeCalendar{},
		crm:      &fakeCRM{},
		ledger:   newFakeLedger(),
		sink:     &fakeSink{},
		clock:    time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}

	fx.o = New(Config{
		Registry:     fx.registry,
		NewGenerator: func() (llm.TextGenerator, error) { return fx.gen, nil },
		Mail:         fx.mail,
		Calendar:     fx.calendar,
		CRM:          fx.crm,
		Processed:    fx.ledger,
		Sink:         fx.sink,
	})
	fx.o.now = func() time.Time { return fx.clock }
	fx.o.sleep = func(d time.Duration) { fx.sleeps = append(fx.sleeps, d) }
	return fx
}

func (fx *fixture) addAgent(t *testing.T, id, name string, steps ...models.Step) {
	t.Helper()
	a := &models.Agent{ID: id, Name: name, Workflow: steps}
	if err := fx.registry.Create(a); err != nil {
		t.Fatalf("create agent: %v", err)
	}
}

func actionStep(id, label string) models.Step {
	return models.Step{ID: id, Kind: models.StepKindAction, Label: label}
}

func notifyStep() models.Step {
	return models.Step{ID: "notify", Kind: models.StepKindNotification, Label: "Notify me about urgent items"}
}

func TestRunCycleDeliversEmailFindings(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "inbox", "Inbox Manager",
		actionStep("fetch", "Fetch new emails"),
		actionStep("analyze", "Analyze emails for important messages"),
		notifyStep(),
	)
	fx.mail.msgs = []google.Message{
		{ID: "m1", From: "dana@northgate.example", Subject: "Contract questions", Snippet: "Before we sign..."},
		{ID: "m2", From: "news@example.com", Subject: "Weekly digest", Snippet: "Top stories"},
	}
	fx.gen.responses = []string{
		`{"important": true, "reason": "client has pre-signing questions"}`,
		`{"important": false, "reason": "newsletter"}`,
	}

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(fx.sink.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(fx.sink.notifications))
	}
	n := fx.sink.notifications[0]
	if n.Severity != models.SeverityError || n.Category != CategoryEmail {
		t.Errorf("notification = %+v", n)
	}
	if n.Title != "Important email from dana@northgate.example" {
		t.Errorf("title = %q", n.Title)
	}

	if len(fx.sink.insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(fx.sink.insights))
	}
	i := fx.sink.insights[0]
	if i.Type != models.InsightSentimentAnalysis || i.Confidence != 90 || i.RelatedTo != "Inbox Manager" {
		t.Errorf("insight = %+v", i)
	}

	// Both fetched messages are in the ledger regardless of triage.
	for _, id := range []string{"m1", "m2"} {
		if !fx.ledger.seen[id] {
			t.Errorf("message %s not in processed ledger", id)
		}
	}

	a, err := fx.registry.Get("inbox")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.TasksCompleted != 1 || a.Efficiency != agent.EfficiencyIncrement {
		t.Errorf("stats = %d / %v", a.TasksCompleted, a.Efficiency)
	}
}

func TestRunCycleSkipsProcessedEmails(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "inbox", "Inbox Manager",
		actionStep("fetch", "Fetch new emails"),
		actionStep("analyze", "Analyze emails for important messages"),
		notifyStep(),
	)
	fx.mail.msgs = []google.Message{
		{ID: "m1", From: "a@example.com", Subject: "Hello"},
	}
	fx.ledger.Add("m1")

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if fx.gen.calls != 0 {
		t.Errorf("generator called %d times for already-processed mail", fx.gen.calls)
	}
	if len(fx.sink.notifications) != 0 {
		t.Errorf("got %d notifications, want 0", len(fx.sink.notifications))
	}
}

func TestRunCycleCalendarConflicts(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "meetings", "Meeting Coordinator",
		actionStep("fetch", "Fetch calendar events"),
		actionStep("analyze", "Check calendar for conflicts"),
		notifyStep(),
	)
	fx.calendar.events = []google.Event{
		{ID: "e1", Summary: "Demo with Northgate", Start: "10:00", End: "11:00", Attendees: 4},
		{ID: "e2", Summary: "Pipeline review", Start: "10:30", End: "11:30", Attendees: 2},
	}
	fx.gen.responses = []string{
		`{"conflicts": ["Demo with Northgate overlaps Pipeline review"],
		  "importantEvents": ["Demo with Northgate needs a prepared deck"],
		  "summary": "Busy morning with one overlap"}`,
	}

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(fx.sink.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(fx.sink.notifications))
	}
	conflict := fx.sink.notifications[0]
	if conflict.Title != "Scheduling conflict" || conflict.Severity != models.SeverityError {
		t.Errorf("conflict notification = %+v", conflict)
	}
	prep := fx.sink.notifications[1]
	if prep.Title != "Event needs preparation" || prep.Severity != models.SeverityWarning {
		t.Errorf("prep notification = %+v", prep)
	}
	for _, i := range fx.sink.insights {
		if i.Type != models.InsightDealRisk {
			t.Errorf("calendar insight type = %s, want deal_risk", i.Type)
		}
	}
}

func TestRunCyclePipelineInsights(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "analyst", "Pipeline Analyst",
		actionStep("fetch", "Fetch CRM data"),
		actionStep("insights", "Analyze pipeline for insights and trends"),
		notifyStep(),
	)
	fx.crm.snap = models.CRMSnapshot{
		Leads: []models.Lead{{ID: "l1", Name: "Dana Whitfield", Company: "Northgate", Score: 82}},
		Deals: []models.Deal{{ID: "d1", Title: "Northgate expansion", Value: 48000, Probability: 70}},
	}
	fx.gen.responses = []string{
		`{"risks": ["Corival deal is stalling"],
		  "opportunities": ["Northgate is ready to expand"],
		  "strategicAdvice": "Focus the week on Northgate",
		  "leadScores": [{"lead": "Dana Whitfield", "score": 85, "reason": "engaged and qualified"}],
		  "dealPredictions": [{"deal": "Corival rollout", "probability": 20, "reason": "no contact in 3 weeks"}],
		  "revenueForecast": {"outlook": "up", "predictedAmount": 120000, "confidence": 70}}`,
	}

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	// strategy + opportunity + risk + lead score + deal prediction + forecast
	if len(fx.sink.notifications) != 6 {
		t.Fatalf("got %d notifications, want 6", len(fx.sink.notifications))
	}

	types := map[models.InsightType]int{}
	for _, i := range fx.sink.insights {
		types[i.Type]++
	}
	if types[models.InsightLeadScore] != 1 || types[models.InsightDealPrediction] != 1 ||
		types[models.InsightRevenueForecast] != 1 || types[models.InsightTrendPrediction] != 3 {
		t.Errorf("insight types = %v", types)
	}

	// High-score lead and low-probability deal are urgent.
	bySeverity := map[models.Severity]int{}
	for _, n := range fx.sink.notifications {
		bySeverity[n.Severity]++
	}
	if bySeverity[models.SeverityError] != 3 {
		t.Errorf("error-severity notifications = %d, want 3 (risk, hot lead, cold deal)", bySeverity[models.SeverityError])
	}
}

func TestRunCycleCoalescesWhileInFlight(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "a1", "Worker", actionStep("fetch", "Fetch new emails"))

	fx.o.mu.Lock()
	fx.o.inFlight = true
	fx.o.mu.Unlock()

	built := 0
	fx.o.newGenerator = func() (llm.TextGenerator, error) {
		built++
		return fx.gen, nil
	}

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if built != 0 {
		t.Error("overlapping cycle still built a generator")
	}
}

func TestRunCycleRateLimitOpensCooldown(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "inbox", "Inbox Manager",
		actionStep("fetch", "Fetch new emails"),
		actionStep("analyze", "Analyze emails for important messages"),
	)
	fx.mail.msgs = []google.Message{{ID: "m1", From: "a@example.com", Subject: "Hi"}}
	// Both the initial call and the single retry are rate limited.
	fx.gen.errs = []error{llm.ErrRateLimited, llm.ErrRateLimited}

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle should contain a rate limit, got %v", err)
	}
	if !fx.o.CoolingDown() {
		t.Fatal("cooldown window not open after rate limit")
	}
	if fx.gen.calls != 2 {
		t.Errorf("generator calls = %d, want initial + one retry", fx.gen.calls)
	}

	// 30 seconds later the window is still closed; no work happens.
	fx.clock = fx.clock.Add(30 * time.Second)
	calls := fx.gen.calls
	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle during cooldown: %v", err)
	}
	if fx.gen.calls != calls {
		t.Error("cycle ran during cooldown")
	}

	// Past the window, scans resume.
	fx.clock = fx.clock.Add(31 * time.Second)
	fx.ledger = newFakeLedger()
	fx.o.processed = fx.ledger
	fx.gen.errs = nil
	fx.gen.responses = []string{`{"important": false, "reason": "ok"}`}
	fx.gen.calls = 0
	fx.gen.prompts = nil
	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle after cooldown: %v", err)
	}
	if fx.o.CoolingDown() {
		t.Error("cooldown still open after it elapsed")
	}
	if fx.gen.calls != 1 {
		t.Errorf("generator calls after resume = %d, want 1", fx.gen.calls)
	}
}

func TestRunCycleGeneratorConfigError(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "a1", "Worker", actionStep("fetch", "Fetch new emails"))
	fx.o.newGenerator = func() (llm.TextGenerator, error) {
		return nil, llm.ErrNoCredential
	}

	err := fx.o.RunCycle(context.Background())
	if err == nil {
		t.Fatal("RunCycle swallowed a configuration error")
	}
	if !errors.Is(err, llm.ErrNoCredential) {
		t.Errorf("err = %v, want ErrNoCredential", err)
	}
}

func TestRunCycleUpgradesLegacyWorkflow(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, agent.LegacyAgentID, "Sales Assistant",
		actionStep("fetch", "Fetch new emails"),
		notifyStep(),
	)

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	a, err := fx.registry.Get(agent.LegacyAgentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(a.Workflow) < agent.LegacyMinSteps {
		t.Errorf("legacy workflow not upgraded: %d steps", len(a.Workflow))
	}
}

func TestRunCycleSpacesOutAgents(t *testing.T) {
	fx := newFixture(t)
	// Two agents with workflows that resolve but skip (mail empty).
	fx.addAgent(t, "a1", "First", actionStep("fetch", "Fetch new emails"))
	fx.addAgent(t, "a2", "Second", actionStep("fetch", "Fetch new emails"))

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var pauses int
	for _, d := range fx.sleeps {
		if d == interAgentDelay {
			pauses++
		}
	}
	if pauses != 1 {
		t.Errorf("inter-agent pauses = %d, want 1 for two agents", pauses)
	}
}

func TestRunCycleEmptyWorkflowRecordsNothing(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "idle", "Idle Agent")

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	a, err := fx.registry.Get("idle")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.TasksCompleted != 0 {
		t.Errorf("TasksCompleted = %d for an empty workflow", a.TasksCompleted)
	}
}

func TestRunCycleUnknownStepSkipped(t *testing.T) {
	fx := newFixture(t)
	fx.addAgent(t, "a1", "Worker",
		actionStep("odd", "Contemplate the universe"),
		actionStep("fetch", "Fetch new emails"),
	)
	fx.mail.msgs = nil

	if err := fx.o.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	// The unresolvable step did not fail the cycle.
	a, _ := fx.registry.Get("a1")
	if a.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", a.TasksCompleted)
	}
}
