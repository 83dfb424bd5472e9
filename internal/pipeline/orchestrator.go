// Package pipeline sequences the recognition and analysis engines per request
// and hands outcomes to the persistence collaborator. It is the only place
// that composes engines; the engines themselves never know about each other.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"civis/internal/domain"
	"civis/internal/filestore"
	"civis/internal/pipeline/metrics"
	"civis/internal/pipeline/store"
	"civis/internal/recognition"
	"civis/internal/recognition/cache"
	"civis/internal/registry"
)

// Service orchestrates the document-intelligence pipeline.
type Service struct {
	registry *registry.Registry
	store    store.Store
	files    filestore.Store
	cache    *cache.Cache
	metrics  *metrics.Metrics
	log      *log.Logger

	// batchConcurrency bounds parallel items during batch processing. The
	// default of 1 keeps load on the rate-limited model backend predictable;
	// raise it only when the backend quota allows.
	batchConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the redis-backed recognition cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics wires prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBatchConcurrency overrides the batch worker bound.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// New constructs the pipeline service.
func New(reg *registry.Registry, st store.Store, files filestore.Store, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		registry:         reg,
		store:            st,
		files:            files,
		log:              logger,
		batchConcurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecognizeOptions tunes a recognition call made through the pipeline.
type RecognizeOptions struct {
	Language string
	// RecordRef, when set, persists a history record for the call.
	RecordRef string
}

// Recognize extracts text from the document at path, consulting the cache
// first. Failures come back inside the result envelope. When opts carries a
// record reference the terminal result is also written to history.
func (s *Service) Recognize(ctx context.Context, path string, opts RecognizeOptions) domain.RecognitionResult {
	start := time.Now()
	res := s.recognizeDocument(ctx, path, opts)
	if opts.RecordRef != "" {
		out := ProcessResult{
			Success:     res.Success,
			Recognition: &res,
			Duration:    time.Since(start),
			Err:         res.Err,
		}
		s.persist(ctx, ProcessRequest{FilePath: path, Language: opts.Language, RecordRef: opts.RecordRef}, out)
	}
	return res
}

func (s *Service) recognizeDocument(ctx context.Context, path string, opts RecognizeOptions) domain.RecognitionResult {
	eng, err := s.registry.Recognition()
	if err != nil {
		return unavailableRecognition(err)
	}

	lang := opts.Language
	if lang == "" {
		lang = eng.DefaultLanguage()
	}

	key, cached, ok := s.cacheLookup(ctx, path, lang)
	if ok {
		return cached
	}

	start := time.Now()
	res := eng.ExtractText(ctx, path, recognition.ExtractOptions{Language: opts.Language})
	s.metrics.ObserveStage("recognition", time.Since(start))
	s.metrics.IncrementRecognition(res.Success)

	s.cacheStore(ctx, key, res)
	return res
}

// RecognizeRegions extracts one result per region; a failed region never
// aborts the others. Region results are not cached. When opts carries a
// record reference a single history record covering all regions is written.
func (s *Service) RecognizeRegions(ctx context.Context, path string, regions []recognition.Region, opts RecognizeOptions) []domain.RecognitionResult {
	start := time.Now()
	eng, err := s.registry.Recognition()
	if err != nil {
		results := make([]domain.RecognitionResult, len(regions))
		for i := range results {
			results[i] = unavailableRecognition(err)
		}
		s.persistRegions(ctx, path, opts.RecordRef, results, time.Since(start))
		return results
	}
	results := eng.ExtractRegions(ctx, path, regions, recognition.ExtractOptions{Language: opts.Language})
	s.metrics.ObserveStage("recognition", time.Since(start))
	for _, r := range results {
		s.metrics.IncrementRecognition(r.Success)
	}
	s.persistRegions(ctx, path, opts.RecordRef, results, time.Since(start))
	return results
}

func (s *Service) cacheLookup(ctx context.Context, path, lang string) (key string, res domain.RecognitionResult, ok bool) {
	if s.cache == nil {
		return "", domain.RecognitionResult{}, false
	}
	image, err := s.files.ReadBytes(path)
	if err != nil {
		return "", domain.RecognitionResult{}, false
	}
	key = cache.Key(image, lang)
	res, err = s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Printf("recognition cache get: %v", err)
		}
		s.metrics.IncrementCacheLookup(false)
		return key, domain.RecognitionResult{}, false
	}
	s.metrics.IncrementCacheLookup(true)
	return key, res, true
}

func (s *Service) cacheStore(ctx context.Context, key string, res domain.RecognitionResult) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, res); err != nil {
		s.log.Printf("recognition cache set: %v", err)
	}
}

// ProcessRequest describes one pipeline invocation: either a document image
// to recognize, or already-extracted text/data, optionally followed by a
// generative task.
type ProcessRequest struct {
	// FilePath triggers the recognition stage when set.
	FilePath string
	// Text is direct input that skips recognition.
	Text string
	// Language overrides the recognition default for this call.
	Language string

	// Task selects the generative stage; empty means recognition only.
	Task domain.TaskKind
	// DocType/DataType qualify document-analysis and validation prompts.
	DocType  string
	DataType string
	// RecordData is the registered record used for fraud comparison.
	RecordData map[string]any
	// Context is caller-supplied prompt context.
	Context map[string]any

	// RecordRef links the invocation to a stored record; empty skips history.
	RecordRef string
}

// ProcessResult is the uniform envelope for one pipeline invocation.
type ProcessResult struct {
	Success     bool                      `json:"success"`
	Recognition *domain.RecognitionResult `json:"recognition,omitempty"`
	Analysis    *domain.AnalysisResult    `json:"analysis,omitempty"`
	Duration    time.Duration             `json:"duration"`
	Err         string                    `json:"error,omitempty"`
}

// Process runs the single-document flow: optional recognition, optional
// analysis, then persistence when a record reference was supplied. A failed
// recognition short-circuits analysis and still persists a failed record.
// There are no automatic retries; callers resubmit failed items.
func (s *Service) Process(ctx context.Context, req ProcessRequest) ProcessResult {
	start := time.Now()
	out := ProcessResult{}

	text := req.Text
	if req.FilePath != "" {
		rec := s.Recognize(ctx, req.FilePath, RecognizeOptions{Language: req.Language})
		out.Recognition = &rec
		if !rec.Success {
			out.Err = rec.Err
			out.Duration = time.Since(start)
			s.persist(ctx, req, out)
			return out
		}
		text = rec.Text
	}

	if req.Task != "" {
		ana := s.runTask(ctx, req, text)
		out.Analysis = &ana
		if !ana.Success {
			out.Err = ana.Err
			out.Duration = time.Since(start)
			s.persist(ctx, req, out)
			return out
		}
	}

	out.Success = true
	out.Duration = time.Since(start)
	s.persist(ctx, req, out)
	return out
}

func (s *Service) runTask(ctx context.Context, req ProcessRequest, text string) domain.AnalysisResult {
	feature := featureFor(req.Task)
	if !s.registry.IsEnabled(feature) {
		return unavailableAnalysis(req.Task, feature)
	}
	eng, err := s.registry.Analysis()
	if err != nil {
		return unavailableAnalysis(req.Task, feature)
	}

	documentData := map[string]any{"text": text}
	start := time.Now()
	var res domain.AnalysisResult
	switch req.Task {
	case domain.TaskDocumentAnalysis:
		res = eng.AnalyzeDocument(ctx, text, req.DocType, req.Context)
	case domain.TaskFraudDetection:
		res = eng.DetectFraud(ctx, documentData, req.RecordData, req.Context)
	case domain.TaskClassification:
		res = eng.ClassifyRecord(ctx, documentData, req.Context)
	case domain.TaskValidation:
		res = eng.ValidateData(ctx, documentData, req.DataType, req.Context)
	default:
		res = domain.AnalysisResult{
			Task:      req.Task,
			Err:       fmt.Sprintf("unknown task kind %q", req.Task),
			Timestamp: time.Now().UTC(),
		}
	}
	s.metrics.ObserveStage("analysis", time.Since(start))
	s.metrics.IncrementAnalysis(string(req.Task), res.Success)
	return res
}

// featureFor maps a task kind to the flag that gates it.
func featureFor(task domain.TaskKind) domain.Feature {
	switch task {
	case domain.TaskFraudDetection:
		return domain.FeatureFraud
	case domain.TaskClassification:
		return domain.FeatureClassification
	default:
		return domain.FeatureAnalysis
	}
}

// persist writes one append-only history record when the request carries a
// record reference. Store failures are logged, never surfaced: the caller
// already has the result in hand.
func (s *Service) persist(ctx context.Context, req ProcessRequest, out ProcessResult) {
	if req.RecordRef == "" || s.store == nil {
		return
	}
	record := &domain.AnalysisRecord{
		ID:             uuid.New(),
		RecordRef:      req.RecordRef,
		Task:           req.Task,
		Input:          inputSnapshot(req),
		Output:         outputSnapshot(out),
		Status:         domain.StatusFailed,
		ProcessingTime: out.Duration,
		CreatedAt:      time.Now().UTC(),
	}
	if out.Success {
		record.Status = domain.StatusCompleted
	}
	if out.Recognition != nil {
		record.Confidence = out.Recognition.Confidence.Average
	}
	if out.Analysis != nil {
		if eng, err := s.registry.Analysis(); err == nil {
			record.Model = eng.Model()
		}
	}

	s.insertRecord(ctx, record)
}

// persistRegions writes one history record covering a whole region call. The
// record fails when any region failed; confidence averages the regions.
func (s *Service) persistRegions(ctx context.Context, path, recordRef string, results []domain.RecognitionResult, elapsed time.Duration) {
	if recordRef == "" || s.store == nil {
		return
	}
	record := &domain.AnalysisRecord{
		ID:             uuid.New(),
		RecordRef:      recordRef,
		Input:          path,
		Status:         domain.StatusCompleted,
		ProcessingTime: elapsed,
		CreatedAt:      time.Now().UTC(),
	}
	var sum float64
	for _, r := range results {
		if !r.Success {
			record.Status = domain.StatusFailed
		}
		sum += r.Confidence.Average
	}
	if len(results) > 0 {
		record.Confidence = sum / float64(len(results))
	}
	if payload, err := json.Marshal(results); err == nil {
		record.Output = string(payload)
	}
	s.insertRecord(ctx, record)
}

func (s *Service) insertRecord(ctx context.Context, record *domain.AnalysisRecord) {
	start := time.Now()
	if err := s.store.Insert(ctx, record); err != nil {
		s.log.Printf("persist analysis record for %s: %v", record.RecordRef, err)
	}
	s.metrics.ObserveStage("persist", time.Since(start))
}

func inputSnapshot(req ProcessRequest) string {
	if req.FilePath != "" {
		return req.FilePath
	}
	return req.Text
}

func outputSnapshot(out ProcessResult) string {
	payload, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(payload)
}

func unavailableRecognition(err error) domain.RecognitionResult {
	return domain.RecognitionResult{
		Success:    false,
		Confidence: domain.ConfidenceStats{Quality: domain.QualityUnknown},
		Err:        err.Error(),
	}
}

func unavailableAnalysis(task domain.TaskKind, feature domain.Feature) domain.AnalysisResult {
	return domain.AnalysisResult{
		Task:      task,
		Err:       fmt.Sprintf("%s: %s", domain.ErrFeatureDisabled, feature),
		Timestamp: time.Now().UTC(),
	}
}

// BatchResult reports one entry per input file, in input order.
type BatchResult struct {
	Results    []BatchItem     `json:"results"`
	TotalFiles int             `json:"total_files"`
	Task       domain.TaskKind `json:"task_kind"`
}

// BatchItem tags each file's outcome independently.
type BatchItem struct {
	File   string        `json:"file"`
	Result ProcessResult `json:"result"`
}

// BatchOptions applies to every item of a batch.
type BatchOptions struct {
	Language string
	DocType  string
	Context  map[string]any
}

// BatchProcess runs the same task over N files and always returns exactly N
// entries in input order; one item failing never stops the rest. Items run
// through a worker pool bounded by the configured concurrency (default 1, see
// Service.batchConcurrency for the rationale).
func (s *Service) BatchProcess(ctx context.Context, files []string, task domain.TaskKind, opts BatchOptions) BatchResult {
	s.metrics.ObserveBatchSize(len(files))
	results := make([]BatchItem, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, file := range files {
		g.Go(func() error {
			results[i] = BatchItem{
				File: file,
				Result: s.Process(gctx, ProcessRequest{
					FilePath: file,
					Language: opts.Language,
					Task:     task,
					DocType:  opts.DocType,
					Context:  opts.Context,
				}),
			}
			return nil
		})
	}
	// Workers never return errors; failures live inside each item.
	_ = g.Wait()

	return BatchResult{Results: results, TotalFiles: len(files), Task: task}
}
