package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

// emailRetryDelay is the pause before the single retry on the email
// classification path.
const emailRetryDelay = 2 * time.Second

// emailClassification is the JSON shape requested for email triage.
type emailClassification struct {
	Important bool   `json:"important"`
	Reason    string `json:"reason"`
}

// classifyEmail asks the LLM whether a message needs attention.
// A rate-limit failure is retried once after a short delay; a second
// failure propagates so the cycle can enter cooldown. Parse failures
// fall back to "not important".
func (o *Orchestrator) classifyEmail(ctx context.Context, gen llm.TextGenerator, msg google.Message) (emailClassification, error) {
	prompt := fmt.Sprintf(`Classify this email for a busy sales professional.

From: %s
Subject: %s
Preview: %s

Is this important enough to surface as an urgent notification?
Respond with a JSON object only:
{"important": true|false, "reason": "<short reason>"}`,
		msg.From, msg.Subject, msg.Snippet)

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil && llm.IsRateLimited(err) {
		debugLog("email classification rate limited, retrying once after %s", emailRetryDelay)
		o.sleep(emailRetryDelay)
		text, err = gen.GenerateText(ctx, prompt)
	}
	if err != nil {
		return emailClassification{}, err
	}

	var result emailClassification
	if err := llm.ExtractJSON(text, &result); err != nil {
		// Conservative default: unparsable triage means not important.
		log.Printf("[cycle] unparsable email classification for %s, treating as not important", msg.ID)
		return emailClassification{}, nil
	}
	return result, nil
}

// calendarAnalysis is the JSON shape requested for calendar review.
type calendarAnalysis struct {
	Conflicts       []string `json:"conflicts"`
	ImportantEvents []string `json:"importantEvents"`
	Summary         string   `json:"summary"`
}

func (o *Orchestrator) analyzeCalendar(ctx context.Context, gen llm.TextGenerator, events []google.Event) (calendarAnalysis, error) {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s (%s to %s, %d attendees)\n", ev.Summary, ev.Start, ev.End, ev.Attendees)
	}

	prompt := fmt.Sprintf(`Review these upcoming calendar events for a sales professional.

%s
Identify scheduling conflicts (overlapping or back-to-back events) and
events that need preparation. Respond with a JSON object only:
{"conflicts": ["<description>"], "importantEvents": ["<description>"], "summary": "<one sentence>"}`,
		b.String())

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return calendarAnalysis{}, err
	}

	var result calendarAnalysis
	if err := llm.ExtractJSON(text, &result); err != nil {
		log.Printf("[cycle] unparsable calendar analysis, skipping findings")
		return calendarAnalysis{}, nil
	}
	return result, nil
}

// taskAnalysis is the JSON shape requested for task review.
type taskAnalysis struct {
	TopPriorities []string `json:"topPriorities"`
	Overdue       []string `json:"overdue"`
	FollowUps     []string `json:"followUps"`
	Summary       string   `json:"summary"`
}

func (o *Orchestrator) analyzeTasks(ctx context.Context, gen llm.TextGenerator, tasks []models.CRMTask) (taskAnalysis, error) {
	var b strings.Builder
	now := o.now()
	for _, t := range tasks {
		due := "no due date"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
			if t.DueDate.Before(now) {
				due += " (past due)"
			}
		}
		fmt.Fprintf(&b, "- %s [priority: %s, due: %s]\n", t.Title, t.Priority, due)
	}

	prompt := fmt.Sprintf(`Review these pending CRM tasks as of %s.

%s
Identify the top priorities, overdue items, and smart follow-up
suggestions. Respond with a JSON object only:
{"topPriorities": ["<task>"], "overdue": ["<task>"], "followUps": ["<suggestion>"], "summary": "<one sentence>"}`,
		now.Format("2006-01-02"), b.String())

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return taskAnalysis{}, err
	}

	var result taskAnalysis
	if err := llm.ExtractJSON(text, &result); err != nil {
		log.Printf("[cycle] unparsable task analysis, skipping findings")
		return taskAnalysis{}, nil
	}
	return result, nil
}

// sentimentAnalysis is the JSON shape requested per support message.
type sentimentAnalysis struct {
	Sentiment string `json:"sentiment"`
	Urgent    bool   `json:"urgent"`
	Reason    string `json:"reason"`
}

// needsAttention reports whether the sentiment warrants a finding.
func (s sentimentAnalysis) needsAttention() bool {
	switch strings.ToLower(s.Sentiment) {
	case "negative", "frustrated", "angry":
		return true
	}
	return s.Urgent
}

func (o *Orchestrator) analyzeSentiment(ctx context.Context, gen llm.TextGenerator, msg google.Message) (sentimentAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze the sentiment of this customer message.

From: %s
Subject: %s
Preview: %s

Respond with a JSON object only:
{"sentiment": "positive|neutral|negative|frustrated", "urgent": true|false, "reason": "<short reason>"}`,
		msg.From, msg.Subject, msg.Snippet)

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return sentimentAnalysis{}, err
	}

	var result sentimentAnalysis
	if err := llm.ExtractJSON(text, &result); err != nil {
		// Unparsable sentiment is treated as neutral.
		return sentimentAnalysis{Sentiment: "neutral"}, nil
	}
	return result, nil
}

// businessInsights is the JSON shape requested for pipeline analysis.
type businessInsights struct {
	Risks           []string         `json:"risks"`
	Opportunities   []string         `json:"opportunities"`
	StrategicAdvice string           `json:"strategicAdvice"`
	LeadScores      []leadScore      `json:"leadScores"`
	DealPredictions []dealPrediction `json:"dealPredictions"`
	RevenueForecast *revenueForecast `json:"revenueForecast"`
}

type leadScore struct {
	Lead   string `json:"lead"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type dealPrediction struct {
	Deal        string `json:"deal"`
	Probability int    `json:"probability"`
	Reason      string `json:"reason"`
}

type revenueForecast struct {
	Outlook         string  `json:"outlook"`
	PredictedAmount float64 `json:"predictedAmount"`
	Confidence      int     `json:"confidence"`
}

func (o *Orchestrator) generateInsights(ctx context.Context, gen llm.TextGenerator, snap *models.CRMSnapshot) (businessInsights, error) {
	prompt := fmt.Sprintf(`Analyze this CRM pipeline snapshot for a sales team.

%s
Respond with a JSON object only:
{"risks": ["<risk>"], "opportunities": ["<opportunity>"], "strategicAdvice": "<one sentence>",
 "leadScores": [{"lead": "<name>", "score": <0-100>, "reason": "<why>"}],
 "dealPredictions": [{"deal": "<title>", "probability": <0-100>, "reason": "<why>"}],
 "revenueForecast": {"outlook": "<up|flat|down>", "predictedAmount": <number>, "confidence": <0-100>}}`,
		describeSnapshot(snap))

	text, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return businessInsights{}, err
	}

	var result businessInsights
	if err := llm.ExtractJSON(text, &result); err != nil {
		log.Printf("[cycle] unparsable pipeline analysis, skipping findings")
		return businessInsights{}, nil
	}
	return result, nil
}

// describeSnapshot renders the snapshot for analysis prompts.
func describeSnapshot(snap *models.CRMSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Leads (%d):\n", len(snap.Leads))
	for _, l := range snap.Leads {
		fmt.Fprintf(&b, "- %s at %s [status: %s, score: %d]\n", l.Name, l.Company, l.Status, l.Score)
	}

	fmt.Fprintf(&b, "\nDeals (%d):\n", len(snap.Deals))
	for _, d := range snap.Deals {
		fmt.Fprintf(&b, "- %s worth $%.0f [stage: %s, probability: %d%%]\n", d.Title, d.Value, d.Stage, d.Probability)
	}

	return b.String()
}
