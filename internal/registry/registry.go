// Package registry owns engine lifecycle. It is an explicit dependency object
// constructed once at startup and handed to the pipeline; there is no package
// global, so tests can run independent instances side by side.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"civis/internal/analysis"
	"civis/internal/domain"
	"civis/internal/filestore"
	"civis/internal/platform/config"
	"civis/internal/recognition"
)

// Registry constructs and holds the engine singletons, gated by feature
// flags. A flag whose engine fails to start is treated as false for the rest
// of the process; the registry itself keeps running.
type Registry struct {
	cfg   config.Config
	files filestore.Store
	log   *log.Logger

	mu          sync.Mutex
	initialized bool
	enabled     map[domain.Feature]bool
	startErrs   map[domain.Feature]string
	recognition *recognition.Engine
	analysis    *analysis.Engine
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecognitionEngine pre-supplies a recognition engine; used by tests.
func WithRecognitionEngine(e *recognition.Engine) Option {
	return func(r *Registry) { r.recognition = e }
}

// WithAnalysisEngine pre-supplies an analysis engine; used by tests.
func WithAnalysisEngine(e *analysis.Engine) Option {
	return func(r *Registry) { r.analysis = e }
}

// New builds an uninitialized registry. Every feature reports disabled until
// Initialize has run.
func New(cfg config.Config, files filestore.Store, logger *log.Logger, opts ...Option) *Registry {
	r := &Registry{
		cfg:       cfg,
		files:     files,
		log:       logger,
		enabled:   make(map[domain.Feature]bool),
		startErrs: make(map[domain.Feature]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize starts each flag-enabled engine. A failed start degrades that
// feature to disabled instead of aborting the registry. Re-initialization is
// not supported and fails fast.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return errors.New("registry already initialized")
	}

	if r.cfg.RecognitionEnabled {
		r.startRecognition()
	}
	if r.cfg.AnalysisEnabled {
		r.startAnalysis(ctx)
	}

	// Fraud and classification ride the analysis engine; their flags only
	// matter when that engine actually came up.
	analysisUp := r.enabled[domain.FeatureAnalysis]
	r.enabled[domain.FeatureFraud] = analysisUp && r.cfg.FraudEnabled
	r.enabled[domain.FeatureClassification] = analysisUp && r.cfg.ClassificationEnabled

	r.initialized = true
	return nil
}

func (r *Registry) startRecognition() {
	if r.recognition == nil {
		r.recognition = recognition.New(r.files, r.log)
	}
	if err := r.recognition.Initialize(r.cfg.OCRLanguage); err != nil {
		r.log.Printf("recognition engine failed to start: %v", err)
		r.startErrs[domain.FeatureRecognition] = err.Error()
		r.recognition = nil
		return
	}
	r.enabled[domain.FeatureRecognition] = true
}

func (r *Registry) startAnalysis(ctx context.Context) {
	if r.analysis == nil {
		eng, err := analysis.New(ctx, r.cfg.GeminiAPIKey, r.cfg.GeminiModel, r.log)
		if err != nil {
			r.log.Printf("analysis engine failed to start: %v", err)
			r.startErrs[domain.FeatureAnalysis] = err.Error()
			return
		}
		r.analysis = eng
	}
	r.enabled[domain.FeatureAnalysis] = true
}

// IsEnabled reports whether a feature is usable right now. Always false
// before Initialize and for features whose engine failed to start.
func (r *Registry) IsEnabled(f domain.Feature) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized && r.enabled[f]
}

// Recognition returns the recognition engine handle.
func (r *Registry) Recognition() (*recognition.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil, domain.NewEngineError(domain.ErrorNotInitialized,
			string(domain.FeatureRecognition), "registry not ready", domain.ErrNotInitialized)
	}
	if !r.enabled[domain.FeatureRecognition] || r.recognition == nil {
		return nil, domain.NewEngineError(domain.ErrorFeatureDisabled,
			string(domain.FeatureRecognition), "engine unavailable", domain.ErrFeatureDisabled)
	}
	return r.recognition, nil
}

// Analysis returns the analysis engine handle.
func (r *Registry) Analysis() (*analysis.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return nil, domain.NewEngineError(domain.ErrorNotInitialized,
			string(domain.FeatureAnalysis), "registry not ready", domain.ErrNotInitialized)
	}
	if !r.enabled[domain.FeatureAnalysis] || r.analysis == nil {
		return nil, domain.NewEngineError(domain.ErrorFeatureDisabled,
			string(domain.FeatureAnalysis), "engine unavailable", domain.ErrFeatureDisabled)
	}
	return r.analysis, nil
}

// Status is the feature-flag view exposed to the ops surface.
type Status struct {
	Features map[domain.Feature]bool `json:"features"`
	Overall  bool                    `json:"overall"`
}

// Status reports per-feature availability plus an overall flag that is true
// when at least one engine is usable.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{Features: make(map[domain.Feature]bool, len(domain.Features()))}
	for _, f := range domain.Features() {
		up := r.initialized && r.enabled[f]
		s.Features[f] = up
		if up {
			s.Overall = true
		}
	}
	return s
}

// HealthCheck probes every enabled engine with isolated failure handling: one
// probe panicking or failing never prevents the others from running. Disabled
// engines report as disabled and do not affect the aggregate.
func (r *Registry) HealthCheck(ctx context.Context) domain.ServiceHealth {
	health := domain.ServiceHealth{Engines: make(map[domain.Feature]domain.EngineHealth)}

	recHealth := r.probeFeature(ctx, domain.FeatureRecognition, func(ctx context.Context) error {
		eng, err := r.Recognition()
		if err != nil {
			return err
		}
		return eng.HealthCheck(ctx)
	})
	health.Engines[domain.FeatureRecognition] = recHealth

	anaHealth := r.probeFeature(ctx, domain.FeatureAnalysis, func(ctx context.Context) error {
		eng, err := r.Analysis()
		if err != nil {
			return err
		}
		return eng.HealthCheck(ctx)
	})
	health.Engines[domain.FeatureAnalysis] = anaHealth

	// Fraud and classification share the analysis engine; re-probing would
	// just bill two more model calls for the same answer.
	for _, f := range []domain.Feature{domain.FeatureFraud, domain.FeatureClassification} {
		if !r.IsEnabled(f) {
			health.Engines[f] = domain.EngineHealth{Status: domain.HealthDisabled}
			continue
		}
		health.Engines[f] = anaHealth
	}

	health.Aggregate()
	return health
}

func (r *Registry) probeFeature(ctx context.Context, f domain.Feature, probe func(context.Context) error) (h domain.EngineHealth) {
	if !r.IsEnabled(f) {
		return domain.EngineHealth{Status: domain.HealthDisabled}
	}
	defer func() {
		if rec := recover(); rec != nil {
			h = domain.EngineHealth{Status: domain.HealthUnhealthy, Err: fmt.Sprintf("probe panic: %v", rec)}
		}
	}()
	if err := probe(ctx); err != nil {
		return domain.EngineHealth{Status: domain.HealthUnhealthy, Err: err.Error()}
	}
	return domain.EngineHealth{Status: domain.HealthHealthy}
}

// Shutdown releases every engine. Idempotent.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.recognition != nil {
		errs = append(errs, r.recognition.Close())
	}
	if r.analysis != nil {
		errs = append(errs, r.analysis.Close())
	}
	for f := range r.enabled {
		r.enabled[f] = false
	}
	return errors.Join(errs...)
}
