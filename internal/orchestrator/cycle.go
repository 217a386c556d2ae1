// Package orchestrator runs the periodic scan cycle: it walks every
// active agent's workflow, resolves each step to an action, executes
// the action against a shared per-cycle context, and delivers the
// accumulated findings as notifications and insights.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/internal/interpret"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/internal/notify"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

const (
	// rateLimitCooldown is how long cycles are suspended after the
	// provider reports a rate limit or quota exhaustion.
	rateLimitCooldown = 60 * time.Second

	// interAgentDelay spaces out consecutive agents within one cycle
	// to avoid bursting the provider.
	interAgentDelay = 2 * time.Second

	// cooldownLogEvery throttles the "still cooling down" log line so
	// a short scan interval does not flood the log.
	cooldownLogEvery = 30 * time.Second

	// defaultMailQuery scopes the inbox fetch to unread mail.
	defaultMailQuery = "is:unread"
)

// MailLister lists recent inbox messages.
type MailLister interface {
	RecentMessages(ctx context.Context, max int64, query string) ([]google.Message, error)
}

// CalendarLister lists upcoming calendar events.
type CalendarLister interface {
	UpcomingEvents(ctx context.Context, max int64) ([]google.Event, error)
}

// CRMReader provides the local CRM data the analysis steps consume.
type CRMReader interface {
	PendingTasks() ([]models.CRMTask, error)
	Snapshot() (*models.CRMSnapshot, error)
}

// ProcessedLedger deduplicates items across cycles.
type ProcessedLedger interface {
	Has(itemID string) (bool, error)
	Add(itemIDs ...string) error
}

// Config carries the orchestrator's collaborators. Mail and Calendar
// may be nil when the Google account is not connected; the fetch
// handlers then skip instead of failing.
type Config struct {
	Registry    *agent.Registry
	Interpreter *interpret.Interpreter
	// NewGenerator builds a text generator for the cycle. It is called
	// fresh each cycle so credential changes take effect without a
	// restart.
	NewGenerator func() (llm.TextGenerator, error)
	Mail         MailLister
	Calendar     CalendarLister
	CRM          CRMReader
	Processed    ProcessedLedger
	Sink         notify.Sink
	// EmailLimit and CalendarLimit cap the fetch steps; zero means
	// the built-in defaults. A step's own max_results still wins.
	EmailLimit    int
	CalendarLimit int
}

// Orchestrator executes scan cycles. All methods are safe for
// concurrent use; overlapping RunCycle calls coalesce into one.
type Orchestrator struct {
	registry     *agent.Registry
	interpreter  *interpret.Interpreter
	newGenerator func() (llm.TextGenerator, error)
	mail         MailLister
	calendar     CalendarLister
	crm          CRMReader
	processed    ProcessedLedger
	sink         notify.Sink

	emailLimit    int64
	calendarLimit int64

	mu               sync.Mutex
	inFlight         bool
	rateLimitedUntil time.Time
	lastCooldownLog  time.Time

	// Overridable in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New builds an orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		registry:      cfg.Registry,
		interpreter:   cfg.Interpreter,
		newGenerator:  cfg.NewGenerator,
		mail:          cfg.Mail,
		calendar:      cfg.Calendar,
		crm:           cfg.CRM,
		processed:     cfg.Processed,
		sink:          cfg.Sink,
		emailLimit:    int64(cfg.EmailLimit),
		calendarLimit: int64(cfg.CalendarLimit),
		now:           time.Now,
		sleep:         time.Sleep,
	}
	if o.emailLimit <= 0 {
		o.emailLimit = defaultEmailFetchLimit
	}
	if o.calendarLimit <= 0 {
		o.calendarLimit = defaultCalendarFetchLimit
	}
	return o
}

// RunCycle executes one scan cycle over all active agents. It returns
// nil when a cycle is already in flight or the cooldown window is
// open. Provider failures inside the cycle are contained: a rate
// limit opens the cooldown window, an expired credential is logged,
// and neither is returned as an error. Configuration problems (no API
// key, unreadable registry) are returned.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if !o.beginCycle() {
		return nil
	}
	defer o.endCycle()

	gen, err := o.newGenerator()
	if err != nil {
		return fmt.Errorf("building generator: %w", err)
	}

	if err := o.registry.UpgradeLegacyWorkflow(); err != nil {
		log.Printf("[cycle] legacy workflow upgrade failed: %v", err)
	}

	agents, err := o.registry.Active()
	if err != nil {
		return fmt.Errorf("loading active agents: %w", err)
	}
	if len(agents) == 0 {
		debugLog("no active agents, nothing to do")
		return nil
	}

	debugLog("cycle start: %d active agents", len(agents))
	for i, a := range agents {
		if i > 0 {
			o.sleep(interAgentDelay)
		}
		if err := o.runAgent(ctx, gen, a); err != nil {
			o.containFailure(a, err)
			return nil
		}
	}
	debugLog("cycle complete")
	return nil
}

// beginCycle claims the in-flight slot. It returns false when a cycle
// is already running or the rate-limit cooldown has not elapsed.
func (o *Orchestrator) beginCycle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		debugLog("cycle already in flight, skipping")
		return false
	}

	if !o.rateLimitedUntil.IsZero() {
		now := o.now()
		if now.Before(o.rateLimitedUntil) {
			if now.Sub(o.lastCooldownLog) >= cooldownLogEvery {
				log.Printf("[cycle] cooling down after rate limit, resuming in %s",
					o.rateLimitedUntil.Sub(now).Round(time.Second))
				o.lastCooldownLog = now
			}
			return false
		}
		o.rateLimitedUntil = time.Time{}
		log.Printf("[cycle] cooldown elapsed, resuming scans")
	}

	o.inFlight = true
	return true
}

func (o *Orchestrator) endCycle() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}

// containFailure absorbs a mid-cycle failure so the scan loop keeps
// running. Rate limits open the cooldown window; everything else is
// logged and dropped.
func (o *Orchestrator) containFailure(a *models.Agent, err error) {
	switch {
	case llm.IsRateLimited(err):
		o.mu.Lock()
		o.rateLimitedUntil = o.now().Add(rateLimitCooldown)
		o.lastCooldownLog = time.Time{}
		o.mu.Unlock()
		log.Printf("[cycle] rate limited during %s, pausing scans for %s", a.Name, rateLimitCooldown)
	case llm.IsCredentialExpired(err) || google.IsCredentialExpired(err):
		log.Printf("[cycle] credential expired during %s, reconnect your account: %v", a.Name, err)
	default:
		log.Printf("[cycle] %s failed: %v", a.Name, err)
	}
}

// runAgent walks one agent's workflow against a fresh execution
// context, then records the completed cycle on the agent.
func (o *Orchestrator) runAgent(ctx context.Context, gen llm.TextGenerator, a *models.Agent) error {
	if len(a.Workflow) == 0 {
		debugLog("%s: empty workflow, skipping", a.Name)
		return nil
	}

	ec := NewContext()
	for _, step := range a.Workflow {
		action := o.resolveAction(ctx, step)
		if action == models.ActionUnknown {
			debugLog("%s: step %q did not resolve to an action, skipping", a.Name, step.Label)
			continue
		}
		handler, ok := handlers[action]
		if !ok {
			continue
		}
		outcome, err := handler(o, ctx, gen, a, step, ec)
		if err != nil {
			return fmt.Errorf("step %q (%s): %w", step.Label, action, err)
		}
		if outcome.Status == StatusSkipped {
			debugLog("%s: step %q skipped: %s", a.Name, step.Label, outcome.Reason)
		}
	}

	if err := o.registry.RecordCycle(a); err != nil {
		return fmt.Errorf("recording cycle stats: %w", err)
	}
	return nil
}

// CoolingDown reports whether the rate-limit cooldown window is open.
func (o *Orchestrator) CoolingDown() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.rateLimitedUntil.IsZero() && o.now().Before(o.rateLimitedUntil)
}
