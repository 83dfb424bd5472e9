package pipeline

import (
	"context"
	"time"

	"civis/internal/domain"
)

// The methods below expose the four generative operations directly, for
// callers that already hold extracted text or structured data. Each checks
// the feature flag first so a disabled engine yields a clean unavailable
// result instead of an internal error, and persists a history record when a
// record reference is supplied.

// AnalyzeDocumentRequest carries input for the open-ended analysis task.
type AnalyzeDocumentRequest struct {
	Text      string
	DocType   string
	Context   map[string]any
	RecordRef string
}

// AnalyzeDocument runs entity extraction and quality assessment over text.
func (s *Service) AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) domain.AnalysisResult {
	return s.direct(ctx, domain.TaskDocumentAnalysis, req.RecordRef, req.Text, func(ctx context.Context) domain.AnalysisResult {
		eng, err := s.registry.Analysis()
		if err != nil {
			return unavailableAnalysis(domain.TaskDocumentAnalysis, domain.FeatureAnalysis)
		}
		return eng.AnalyzeDocument(ctx, req.Text, req.DocType, req.Context)
	})
}

// DetectFraudRequest carries input for the fraud-detection task.
type DetectFraudRequest struct {
	DocumentData map[string]any
	RecordData   map[string]any
	Context      map[string]any
	RecordRef    string
}

// DetectFraud compares document data against the registered record.
func (s *Service) DetectFraud(ctx context.Context, req DetectFraudRequest) domain.AnalysisResult {
	if !s.registry.IsEnabled(domain.FeatureFraud) {
		return unavailableAnalysis(domain.TaskFraudDetection, domain.FeatureFraud)
	}
	return s.direct(ctx, domain.TaskFraudDetection, req.RecordRef, serializeSnapshot(req.DocumentData), func(ctx context.Context) domain.AnalysisResult {
		eng, err := s.registry.Analysis()
		if err != nil {
			return unavailableAnalysis(domain.TaskFraudDetection, domain.FeatureFraud)
		}
		return eng.DetectFraud(ctx, req.DocumentData, req.RecordData, req.Context)
	})
}

// ClassifyRecordRequest carries input for the classification task.
type ClassifyRecordRequest struct {
	DocumentData map[string]any
	Context      map[string]any
	RecordRef    string
}

// ClassifyRecord assigns an event type, priority and processing steps.
func (s *Service) ClassifyRecord(ctx context.Context, req ClassifyRecordRequest) domain.AnalysisResult {
	if !s.registry.IsEnabled(domain.FeatureClassification) {
		return unavailableAnalysis(domain.TaskClassification, domain.FeatureClassification)
	}
	return s.direct(ctx, domain.TaskClassification, req.RecordRef, serializeSnapshot(req.DocumentData), func(ctx context.Context) domain.AnalysisResult {
		eng, err := s.registry.Analysis()
		if err != nil {
			return unavailableAnalysis(domain.TaskClassification, domain.FeatureClassification)
		}
		return eng.ClassifyRecord(ctx, req.DocumentData, req.Context)
	})
}

// ValidateDataRequest carries input for the validation task.
type ValidateDataRequest struct {
	Data      map[string]any
	DataType  string
	Context   map[string]any
	RecordRef string
}

// ValidateData checks record data for completeness and accuracy.
func (s *Service) ValidateData(ctx context.Context, req ValidateDataRequest) domain.AnalysisResult {
	return s.direct(ctx, domain.TaskValidation, req.RecordRef, serializeSnapshot(req.Data), func(ctx context.Context) domain.AnalysisResult {
		eng, err := s.registry.Analysis()
		if err != nil {
			return unavailableAnalysis(domain.TaskValidation, domain.FeatureAnalysis)
		}
		return eng.ValidateData(ctx, req.Data, req.DataType, req.Context)
	})
}

// direct runs one standalone generative operation with timing, metrics, and
// optional history persistence.
func (s *Service) direct(ctx context.Context, task domain.TaskKind, recordRef, input string, run func(context.Context) domain.AnalysisResult) domain.AnalysisResult {
	start := time.Now()
	res := run(ctx)
	elapsed := time.Since(start)
	s.metrics.ObserveStage("analysis", elapsed)
	s.metrics.IncrementAnalysis(string(task), res.Success)

	if recordRef != "" {
		s.persist(ctx, ProcessRequest{Task: task, Text: input, RecordRef: recordRef}, ProcessResult{
			Success:  res.Success,
			Analysis: &res,
			Duration: elapsed,
			Err:      res.Err,
		})
	}
	return res
}
