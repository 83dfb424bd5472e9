// Package recognition turns uploaded document images into usable text plus a
// quality signal. The default backend is Tesseract via gosseract; every call
// configures its own stateless backend invocation, so language is strictly a
// per-call parameter and concurrent extractions in different languages never
// interfere.
package recognition

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"civis/internal/domain"
	"civis/internal/filestore"
)

// supportedLanguages is the fixed set of installed traineddata packs.
var supportedLanguages = map[string]bool{
	"eng": true,
	"spa": true,
	"fra": true,
	"deu": true,
	"por": true,
}

// defaultWhitelist restricts recognition to characters that occur in
// vital-event documents, which cuts noise from stamps and decorative marks.
const defaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,:;/()-'\""

// Region is a rectangular area in pixel coordinates, origin upper-left.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// ExtractOptions tunes a single extraction call.
type ExtractOptions struct {
	// Language overrides the engine default for this call only.
	Language string
	// Region restricts recognition to a subsection of the image.
	Region *Region
	// Whitelist overrides the default character whitelist; empty keeps it.
	Whitelist string
}

// Request is the flattened input handed to the backend.
type Request struct {
	Image     []byte
	Language  string
	Region    *Region
	Whitelist string
}

// Backend is the recognition backend contract. Production uses Tesseract;
// tests inject a fake.
type Backend interface {
	Recognize(ctx context.Context, req Request) (string, []domain.ScoredWord, error)
}

// Engine is the text recognition engine. Safe for concurrent use: the only
// mutable state is the default language, guarded by a mutex, and backend
// invocations are stateless.
type Engine struct {
	files   filestore.Store
	log     *log.Logger
	backend Backend

	mu              sync.Mutex
	defaultLanguage string
	ready           bool
	closed          bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend swaps the recognition backend; used by tests.
func WithBackend(b Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// New constructs an Engine with the Tesseract backend.
func New(files filestore.Store, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		files:           files,
		log:             logger,
		backend:         &tesseractRecognizer{},
		defaultLanguage: "eng",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize validates the configured default language and marks the engine
// ready. Language switches after this point are explicit, never automatic.
func (e *Engine) Initialize(defaultLanguage string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("recognition engine is closed")
	}
	if defaultLanguage == "" {
		defaultLanguage = "eng"
	}
	if !supportedLanguages[defaultLanguage] {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, defaultLanguage)
	}
	e.defaultLanguage = defaultLanguage
	e.ready = true
	return nil
}

// DefaultLanguage returns the current fallback language.
func (e *Engine) DefaultLanguage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultLanguage
}

// ChangeLanguage updates the fallback language for calls that do not specify
// one. Unknown languages are rejected.
func (e *Engine) ChangeLanguage(lang string) error {
	if !supportedLanguages[lang] {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, lang)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultLanguage = lang
	return nil
}

// ExtractText runs recognition over the full document at path. Failures are
// reported inside the result envelope; this method never returns an error to
// keep the engine boundary exception-free.
func (e *Engine) ExtractText(ctx context.Context, path string, opts ExtractOptions) domain.RecognitionResult {
	start := time.Now()

	lang, err := e.resolveLanguage(opts.Language)
	if err != nil {
		return failedResult(opts.Language, start, err)
	}
	if !e.files.Exists(path) {
		return failedResult(lang, start, fmt.Errorf("input file not found: %s", path))
	}
	image, err := e.files.ReadBytes(path)
	if err != nil {
		return failedResult(lang, start, fmt.Errorf("read input: %w", err))
	}

	whitelist := opts.Whitelist
	if whitelist == "" {
		whitelist = defaultWhitelist
	}

	raw, words, err := e.recognize(ctx, Request{
		Image:     image,
		Language:  lang,
		Region:    opts.Region,
		Whitelist: whitelist,
	})
	if err != nil {
		e.log.Printf("recognition failed for %s: %v", path, err)
		return failedResult(lang, start, fmt.Errorf("recognition failed"))
	}

	return domain.RecognitionResult{
		Success:        true,
		Text:           CleanText(raw),
		Confidence:     Stats(words),
		Words:          words,
		Language:       lang,
		ProcessingTime: time.Since(start),
	}
}

// ExtractRegions runs one extraction per region rectangle. A failed region
// yields a failed entry at its index without aborting the remaining regions.
func (e *Engine) ExtractRegions(ctx context.Context, path string, regions []Region, opts ExtractOptions) []domain.RecognitionResult {
	results := make([]domain.RecognitionResult, 0, len(regions))
	for i := range regions {
		region := regions[i]
		regionOpts := opts
		regionOpts.Region = &region
		results = append(results, e.ExtractText(ctx, path, regionOpts))
	}
	return results
}

// HealthCheck runs a trivial recognition over an embedded probe image. Any
// backend error or panic is reported as unhealthy, never propagated.
func (e *Engine) HealthCheck(ctx context.Context) (err error) {
	e.mu.Lock()
	ready := e.ready && !e.closed
	lang := e.defaultLanguage
	e.mu.Unlock()
	if !ready {
		return fmt.Errorf("recognition engine not initialized")
	}
	_, _, err = e.recognize(ctx, Request{Image: probeImage(), Language: lang})
	if err != nil {
		return fmt.Errorf("probe recognition: %w", err)
	}
	return nil
}

// Close releases backend resources. Safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.ready = false
	return nil
}

// recognize guards the backend call: a panic inside the cgo boundary becomes
// an error instead of taking the process down.
func (e *Engine) recognize(ctx context.Context, req Request) (text string, words []domain.ScoredWord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recognition backend panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return e.backend.Recognize(ctx, req)
}

func (e *Engine) resolveLanguage(requested string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready || e.closed {
		return "", fmt.Errorf("recognition engine not initialized")
	}
	if requested == "" {
		return e.defaultLanguage, nil
	}
	if !supportedLanguages[requested] {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, requested)
	}
	return requested, nil
}

func failedResult(lang string, start time.Time, err error) domain.RecognitionResult {
	return domain.RecognitionResult{
		Success:        false,
		Confidence:     domain.ConfidenceStats{Quality: domain.QualityUnknown},
		Language:       lang,
		ProcessingTime: time.Since(start),
		Err:            err.Error(),
	}
}
