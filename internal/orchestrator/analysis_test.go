package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tailfin-crm/tailfin/internal/google"
	"github.com/tailfin-crm/tailfin/internal/llm"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

func TestClassifyEmailRetriesRateLimit(t *testing.T) {
	fx := newFixture(t)
	fx.gen.errs = []error{llm.ErrRateLimited}
	fx.gen.responses = []string{"", `{"important": true, "reason": "escalation"}`}

	msg := google.Message{ID: "m1", From: "a@example.com", Subject: "Help"}
	result, err := fx.o.classifyEmail(context.Background(), fx.gen, msg)
	if err != nil {
		t.Fatalf("classifyEmail: %v", err)
	}
	if !result.Important || result.Reason != "escalation" {
		t.Errorf("result = %+v", result)
	}
	if fx.gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", fx.gen.calls)
	}
	if len(fx.sleeps) != 1 || fx.sleeps[0] != emailRetryDelay {
		t.Errorf("sleeps = %v, want one retry delay", fx.sleeps)
	}
}

func TestClassifyEmailGenericErrorNoRetry(t *testing.T) {
	fx := newFixture(t)
	fx.gen.errs = []error{errors.New("boom")}

	_, err := fx.o.classifyEmail(context.Background(), fx.gen, google.Message{ID: "m1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if fx.gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (no retry on generic failure)", fx.gen.calls)
	}
}

func TestClassifyEmailUnparsableDefaultsToUnimportant(t *testing.T) {
	fx := newFixture(t)
	fx.gen.responses = []string{"I cannot answer in JSON, sorry."}

	result, err := fx.o.classifyEmail(context.Background(), fx.gen, google.Message{ID: "m1"})
	if err != nil {
		t.Fatalf("classifyEmail: %v", err)
	}
	if result.Important {
		t.Error("unparsable triage treated as important")
	}
}

func TestSentimentNeedsAttention(t *testing.T) {
	cases := []struct {
		s    sentimentAnalysis
		want bool
	}{
		{sentimentAnalysis{Sentiment: "positive"}, false},
		{sentimentAnalysis{Sentiment: "neutral"}, false},
		{sentimentAnalysis{Sentiment: "negative"}, true},
		{sentimentAnalysis{Sentiment: "Frustrated"}, true},
		{sentimentAnalysis{Sentiment: "angry"}, true},
		{sentimentAnalysis{Sentiment: "neutral", Urgent: true}, true},
	}
	for _, tc := range cases {
		if got := tc.s.needsAttention(); got != tc.want {
			t.Errorf("needsAttention(%+v) = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestAnalyzeSentimentUnparsableIsNeutral(t *testing.T) {
	fx := newFixture(t)
	fx.gen.responses = []string{"no json here"}

	result, err := fx.o.analyzeSentiment(context.Background(), fx.gen, google.Message{ID: "m1"})
	if err != nil {
		t.Fatalf("analyzeSentiment: %v", err)
	}
	if result.Sentiment != "neutral" || result.needsAttention() {
		t.Errorf("result = %+v", result)
	}
}

func TestAnalyzeTasksMarksOverdue(t *testing.T) {
	fx := newFixture(t)
	past := fx.clock.Add(-48 * time.Hour)
	future := fx.clock.Add(48 * time.Hour)
	tasks := []models.CRMTask{
		{ID: "t1", Title: "Send contract", DueDate: &past, Priority: "high"},
		{ID: "t2", Title: "Prep demo", DueDate: &future, Priority: "medium"},
		{ID: "t3", Title: "Whenever"},
	}
	fx.gen.responses = []string{`{"topPriorities": [], "overdue": [], "followUps": [], "summary": ""}`}

	if _, err := fx.o.analyzeTasks(context.Background(), fx.gen, tasks); err != nil {
		t.Fatalf("analyzeTasks: %v", err)
	}

	prompt := fx.gen.prompts[0]
	if !strings.Contains(prompt, "(past due)") {
		t.Error("overdue task not marked in prompt")
	}
	if strings.Count(prompt, "(past due)") != 1 {
		t.Errorf("past-due markers = %d, want 1", strings.Count(prompt, "(past due)"))
	}
	if !strings.Contains(prompt, "no due date") {
		t.Error("undated task not marked in prompt")
	}
}

func TestDescribeSnapshot(t *testing.T) {
	snap := &models.CRMSnapshot{
		Leads: []models.Lead{{Name: "Dana Whitfield", Company: "Northgate", Status: models.LeadStatusQualified, Score: 82}},
		Deals: []models.Deal{{Title: "Northgate expansion", Value: 48000, Stage: models.DealStageNegotiation, Probability: 70}},
	}

	got := describeSnapshot(snap)
	for _, want := range []string{
		"Leads (1):", "Dana Whitfield at Northgate", "score: 82",
		"Deals (1):", "Northgate expansion worth $48000", "probability: 70%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("describeSnapshot missing %q in:\n%s", want, got)
		}
	}
}
