package analysis

import "fmt"

// The four task payloads below mirror the JSON shapes the model is instructed
// to produce. Each payload validates its own enums so "what the model must
// return" lives in one testable place instead of only in prompt text.

// ExtractedData groups the entities pulled out of a document.
type ExtractedData struct {
	Names     []string       `json:"names"`
	Dates     []string       `json:"dates"`
	Locations []string       `json:"locations"`
	Numbers   []string       `json:"numbers"`
	Other     map[string]any `json:"other,omitempty"`
}

// DocumentAnalysis is the open-ended analysis payload.
type DocumentAnalysis struct {
	ExtractedData   ExtractedData `json:"extracted_data"`
	Confidence      float64       `json:"confidence"`
	QualityScore    float64       `json:"quality_score"`
	Notes           string        `json:"notes"`
	Recommendations []string      `json:"recommendations"`
}

func (d *DocumentAnalysis) validate() error {
	return nil
}

// RiskLevel grades fraud likelihood.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// FraudAssessment is the fraud-detection payload.
type FraudAssessment struct {
	RiskLevel       RiskLevel `json:"fraud_risk_level"`
	Indicators      []string  `json:"fraud_indicators"`
	Inconsistencies []string  `json:"inconsistencies"`
	Confidence      float64   `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	RequiresReview  bool      `json:"requires_review"`
}

func (f *FraudAssessment) validate() error {
	switch f.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
		return nil
	}
	return fmt.Errorf("unknown fraud_risk_level %q", f.RiskLevel)
}

// EventType names the vital-event category a record belongs to.
type EventType string

const (
	EventBirth    EventType = "birth"
	EventDeath    EventType = "death"
	EventMarriage EventType = "marriage"
	EventDivorce  EventType = "divorce"
	EventAdoption EventType = "adoption"
)

// Priority ranks how urgently a record needs processing.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Classification is the record-classification payload.
type Classification struct {
	EventType       EventType `json:"event_type"`
	Categories      []string  `json:"categories"`
	Priority        Priority  `json:"priority"`
	ProcessingSteps []string  `json:"processing_steps"`
	Confidence      float64   `json:"confidence"`
}

func (c *Classification) validate() error {
	switch c.EventType {
	case EventBirth, EventDeath, EventMarriage, EventDivorce, EventAdoption:
	default:
		return fmt.Errorf("unknown event_type %q", c.EventType)
	}
	switch c.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		return fmt.Errorf("unknown priority %q", c.Priority)
	}
	return nil
}

// ValidationReport is the data-validation payload.
type ValidationReport struct {
	IsValid           bool     `json:"is_valid"`
	ValidationErrors  []string `json:"validation_errors"`
	Warnings          []string `json:"warnings"`
	CompletenessScore float64  `json:"completeness_score"`
	AccuracyScore     float64  `json:"accuracy_score"`
	Recommendations   []string `json:"recommendations"`
}

func (v *ValidationReport) validate() error {
	return nil
}
