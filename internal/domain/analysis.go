package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskKind identifies one of the fixed generative-analysis operations.
type TaskKind string

const (
	TaskDocumentAnalysis TaskKind = "document_analysis"
	TaskFraudDetection   TaskKind = "fraud_detection"
	TaskClassification   TaskKind = "classification"
	TaskValidation       TaskKind = "validation"
)

// Valid reports whether t is one of the known task kinds.
func (t TaskKind) Valid() bool {
	switch t {
	case TaskDocumentAnalysis, TaskFraudDetection, TaskClassification, TaskValidation:
		return true
	}
	return false
}

// AnalysisResult is the uniform envelope for every generative operation.
// Exactly one of Data/Err is set. RawResponse is retained whenever the model
// produced text, parseable or not, so no output is silently discarded.
type AnalysisResult struct {
	Success     bool            `json:"success"`
	Task        TaskKind        `json:"task_kind"`
	Data        json.RawMessage `json:"structured_data,omitempty"`
	RawResponse string          `json:"raw_response,omitempty"`
	Err         string          `json:"error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// RecordStatus marks the terminal state of a pipeline invocation.
type RecordStatus string

const (
	StatusCompleted RecordStatus = "completed"
	StatusFailed    RecordStatus = "failed"
)

// AnalysisRecord is the persisted, append-only history entry created once per
// pipeline invocation. It is never mutated after creation.
type AnalysisRecord struct {
	ID             uuid.UUID
	RecordRef      string
	Task           TaskKind
	Model          string
	Input          string
	Output         string
	Confidence     float64
	Status         RecordStatus
	ProcessingTime time.Duration
	CreatedAt      time.Time
}
