package domain

import "time"

// Quality buckets an average confidence score into a coarse label.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
	QualityUnknown   Quality = "unknown"
)

// ScoredWord is a recognized token with its model-reported confidence (0-100).
type ScoredWord struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ConfidenceStats summarizes per-word confidence scores for one extraction.
type ConfidenceStats struct {
	Average       float64      `json:"average"`
	Min           float64      `json:"min"`
	Max           float64      `json:"max"`
	Quality       Quality      `json:"quality"`
	LowConfidence []ScoredWord `json:"low_confidence_words,omitempty"`
}

// RecognitionResult is the envelope for a single text extraction. Text is set
// only on success; Err only on failure, never both.
type RecognitionResult struct {
	Success        bool            `json:"success"`
	Text           string          `json:"text,omitempty"`
	Confidence     ConfidenceStats `json:"confidence"`
	Words          []ScoredWord    `json:"words,omitempty"`
	Language       string          `json:"language"`
	ProcessingTime time.Duration   `json:"processing_time"`
	Err            string          `json:"error,omitempty"`
}
