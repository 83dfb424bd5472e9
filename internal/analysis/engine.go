// Package analysis performs structured, model-backed reasoning over already
// extracted document text for four fixed task kinds. The model backend is
// Gemini via the generative-ai-go SDK; tests inject a fake invoker.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"civis/internal/domain"
)

// Invoker is the model transport contract: one prompt in, one text reply out.
type Invoker interface {
	Generate(ctx context.Context, system, user string, temperature float32) (string, error)
	Close() error
}

// Engine is the generative analysis engine. Independent calls share no
// mutable state, so concurrent use is safe up to whatever limit the caller
// imposes on the backend.
type Engine struct {
	inv   Invoker
	model string
	log   *log.Logger

	mu     sync.Mutex
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithInvoker swaps the model backend; used by tests.
func WithInvoker(inv Invoker) Option {
	return func(e *Engine) { e.inv = inv }
}

// New constructs an Engine backed by Gemini. The API key is required; a
// missing key fails construction so the registry can mark the feature off.
func New(ctx context.Context, apiKey, model string, logger *log.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{model: model, log: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.inv == nil {
		if strings.TrimSpace(apiKey) == "" {
			return nil, errors.New("analysis engine requires an API key")
		}
		inv, err := newGeminiInvoker(ctx, apiKey, model)
		if err != nil {
			return nil, fmt.Errorf("create model client: %w", err)
		}
		e.inv = inv
	}
	return e, nil
}

// Model returns the configured model name.
func (e *Engine) Model() string { return e.model }

// AnalyzeDocument runs open-ended entity extraction and quality assessment
// over OCR text.
func (e *Engine) AnalyzeDocument(ctx context.Context, text, docType string, extra map[string]any) domain.AnalysisResult {
	return e.run(ctx, domain.TaskDocumentAnalysis,
		analyzeDocumentPrompt(text, docType, extra), temperatureAnalysis, &DocumentAnalysis{})
}

// DetectFraud compares extracted document data against the registered record.
func (e *Engine) DetectFraud(ctx context.Context, documentData, recordData, extra map[string]any) domain.AnalysisResult {
	return e.run(ctx, domain.TaskFraudDetection,
		detectFraudPrompt(documentData, recordData, extra), temperatureFraud, &FraudAssessment{})
}

// ClassifyRecord assigns an event type, priority and processing steps.
func (e *Engine) ClassifyRecord(ctx context.Context, documentData, extra map[string]any) domain.AnalysisResult {
	return e.run(ctx, domain.TaskClassification,
		classifyRecordPrompt(documentData, extra), temperatureClassification, &Classification{})
}

// ValidateData checks record data for completeness and accuracy.
func (e *Engine) ValidateData(ctx context.Context, data map[string]any, dataType string, extra map[string]any) domain.AnalysisResult {
	return e.run(ctx, domain.TaskValidation,
		validateDataPrompt(data, dataType, extra), temperatureValidation, &ValidationReport{})
}

// run invokes the model and parses the reply. Transport errors surface as a
// generic failed result without leaking backend internals; a reply that is
// not the expected shape becomes a failed result carrying the raw text.
func (e *Engine) run(ctx context.Context, task domain.TaskKind, prompt string, temperature float32, into payload) domain.AnalysisResult {
	if err := e.usable(); err != nil {
		return failedAnalysis(task, err.Error())
	}
	raw, err := e.inv.Generate(ctx, systemPersona, prompt, temperature)
	if err != nil {
		e.log.Printf("%s: model call failed: %v", task, err)
		return failedAnalysis(task, "analysis failed")
	}
	if strings.TrimSpace(raw) == "" {
		return failedAnalysis(task, "empty model response")
	}
	return parseResult(task, raw, into)
}

// HealthCheck issues a minimal model call; healthy iff a non-empty response
// comes back. Transport and auth errors are reported, never propagated.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if err := e.usable(); err != nil {
		return err
	}
	raw, err := e.inv.Generate(ctx, "", "Reply with the single word: ok", 0)
	if err != nil {
		return fmt.Errorf("probe generation: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return errors.New("probe generation returned empty response")
	}
	return nil
}

// Close releases the model client. Safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.inv.Close()
}

func (e *Engine) usable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("analysis engine is closed")
	}
	return nil
}

func failedAnalysis(task domain.TaskKind, msg string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Task:      task,
		Err:       msg,
		Timestamp: time.Now().UTC(),
	}
}
