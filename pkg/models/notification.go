package models

import "time"

// Severity classifies how urgent a notification is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-visible alert emitted at the end of a scan
// cycle. Unread notifications are dismissible individually or in bulk.
type Notification struct {
	// ID is the unique identifier.
	ID string `json:"id"`
	// Title is the short headline.
	Title string `json:"title"`
	// Message is the body text.
	Message string `json:"message"`
	// Severity classifies the urgency.
	Severity Severity `json:"severity"`
	// Category is the originating finding category (email, calendar, ...).
	Category string `json:"category,omitempty"`
	// Read indicates the user has seen the notification.
	Read bool `json:"read"`
	// CreatedAt is when the notification was emitted.
	CreatedAt time.Time `json:"created_at"`
}

// InsightType is the fixed enumeration of persisted insight categories.
type InsightType string

const (
	InsightLeadScore          InsightType = "lead_score"
	InsightDealRisk           InsightType = "deal_risk"
	InsightFollowUpSuggestion InsightType = "follow_up_suggestion"
	InsightSentimentAnalysis  InsightType = "sentiment_analysis"
	InsightTrendPrediction    InsightType = "trend_prediction"
	InsightRevenueForecast    InsightType = "revenue_forecast"
	InsightDealPrediction     InsightType = "deal_prediction"
)

// Valid returns true if the insight type is a known value.
func (t InsightType) Valid() bool {
	switch t {
	case InsightLeadScore, InsightDealRisk, InsightFollowUpSuggestion,
		InsightSentimentAnalysis, InsightTrendPrediction,
		InsightRevenueForecast, InsightDealPrediction:
		return true
	default:
		return false
	}
}

// Insight is a persisted record derived from a notification-worthy
// finding. Insights accumulate until cleared in bulk by the user.
type Insight struct {
	// ID is the unique identifier.
	ID string `json:"id"`
	// Type is the insight category.
	Type InsightType `json:"type"`
	// Title is the short headline.
	Title string `json:"title"`
	// Description is the detail text.
	Description string `json:"description"`
	// Confidence is a 0-100 confidence score.
	Confidence int `json:"confidence"`
	// RelatedTo optionally references a CRM entity.
	RelatedTo string `json:"related_to,omitempty"`
	// RecommendedAction optionally suggests a next step.
	RecommendedAction string `json:"recommended_action,omitempty"`
	// CreatedAt is when the insight was persisted.
	CreatedAt time.Time `json:"created_at"`
}
