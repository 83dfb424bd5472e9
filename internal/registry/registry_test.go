package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civis/internal/analysis"
	"civis/internal/domain"
	"civis/internal/filestore"
	"civis/internal/platform/config"
	"civis/internal/platform/logger"
	"civis/internal/recognition"
)

type stubBackend struct {
	err error
}

func (s *stubBackend) Recognize(context.Context, recognition.Request) (string, []domain.ScoredWord, error) {
	return "probe", nil, s.err
}

type stubInvoker struct {
	reply string
	err   error
}

func (s *stubInvoker) Generate(context.Context, string, string, float32) (string, error) {
	return s.reply, s.err
}

func (s *stubInvoker) Close() error { return nil }

func allEnabledConfig() config.Config {
	return config.Config{
		RecognitionEnabled:    true,
		AnalysisEnabled:       true,
		FraudEnabled:          true,
		ClassificationEnabled: true,
		OCRLanguage:           "eng",
		GeminiModel:           "test-model",
	}
}

func newTestRegistry(t *testing.T, cfg config.Config, opts ...Option) *Registry {
	t.Helper()
	log := logger.New()
	base := []Option{
		WithRecognitionEngine(recognition.New(filestore.NewLocal(), log, recognition.WithBackend(&stubBackend{}))),
	}
	if cfg.AnalysisEnabled {
		eng, err := analysis.New(context.Background(), "", cfg.GeminiModel, log,
			analysis.WithInvoker(&stubInvoker{reply: "ok"}))
		require.NoError(t, err)
		base = append(base, WithAnalysisEngine(eng))
	}
	return New(cfg, filestore.NewLocal(), log, append(base, opts...)...)
}

func TestEverythingDisabledBeforeInitialize(t *testing.T) {
	r := newTestRegistry(t, allEnabledConfig())

	for _, f := range domain.Features() {
		assert.False(t, r.IsEnabled(f), "feature %s", f)
	}
	_, err := r.Recognition()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	_, err = r.Analysis()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.False(t, r.Status().Overall)
}

func TestInitializeEnablesFlaggedFeatures(t *testing.T) {
	r := newTestRegistry(t, allEnabledConfig())
	require.NoError(t, r.Initialize(context.Background()))

	for _, f := range domain.Features() {
		assert.True(t, r.IsEnabled(f), "feature %s", f)
	}

	rec, err := r.Recognition()
	require.NoError(t, err)
	assert.NotNil(t, rec)

	ana, err := r.Analysis()
	require.NoError(t, err)
	assert.NotNil(t, ana)

	status := r.Status()
	assert.True(t, status.Overall)
	assert.True(t, status.Features[domain.FeatureFraud])
}

func TestInitializeTwiceFails(t *testing.T) {
	r := newTestRegistry(t, allEnabledConfig())
	require.NoError(t, r.Initialize(context.Background()))
	assert.Error(t, r.Initialize(context.Background()))
}

func TestFlagsOffStayOff(t *testing.T) {
	cfg := allEnabledConfig()
	cfg.AnalysisEnabled = false
	r := newTestRegistry(t, cfg)
	require.NoError(t, r.Initialize(context.Background()))

	assert.True(t, r.IsEnabled(domain.FeatureRecognition))
	assert.False(t, r.IsEnabled(domain.FeatureAnalysis))
	// Dependent features never outlive the analysis engine.
	assert.False(t, r.IsEnabled(domain.FeatureFraud))
	assert.False(t, r.IsEnabled(domain.FeatureClassification))

	_, err := r.Analysis()
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)
}

func TestAnalysisStartFailureDegrades(t *testing.T) {
	// No injected engine and no API key: the analysis start must fail and the
	// feature degrade to disabled while the registry keeps working.
	log := logger.New()
	cfg := allEnabledConfig()
	r := New(cfg, filestore.NewLocal(), log,
		WithRecognitionEngine(recognition.New(filestore.NewLocal(), log, recognition.WithBackend(&stubBackend{}))))

	require.NoError(t, r.Initialize(context.Background()))

	assert.True(t, r.IsEnabled(domain.FeatureRecognition))
	assert.False(t, r.IsEnabled(domain.FeatureAnalysis))
	assert.False(t, r.IsEnabled(domain.FeatureFraud))
	assert.False(t, r.IsEnabled(domain.FeatureClassification))
	assert.True(t, r.Status().Overall)
}

func TestRecognitionStartFailureDegrades(t *testing.T) {
	cfg := allEnabledConfig()
	cfg.OCRLanguage = "tlh"
	r := newTestRegistry(t, cfg)

	require.NoError(t, r.Initialize(context.Background()))

	assert.False(t, r.IsEnabled(domain.FeatureRecognition))
	assert.True(t, r.IsEnabled(domain.FeatureAnalysis))

	_, err := r.Recognition()
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)
}

func TestHealthCheckAllHealthy(t *testing.T) {
	r := newTestRegistry(t, allEnabledConfig())
	require.NoError(t, r.Initialize(context.Background()))

	health := r.HealthCheck(context.Background())

	assert.Equal(t, domain.AggregateHealthy, health.Status)
	for _, f := range domain.Features() {
		assert.Equal(t, domain.HealthHealthy, health.Engines[f].Status, "feature %s", f)
	}
}

func TestHealthCheckDisabledFeaturesIgnored(t *testing.T) {
	cfg := allEnabledConfig()
	cfg.AnalysisEnabled = false
	r := newTestRegistry(t, cfg)
	require.NoError(t, r.Initialize(context.Background()))

	health := r.HealthCheck(context.Background())

	assert.Equal(t, domain.AggregateHealthy, health.Status)
	assert.Equal(t, domain.HealthHealthy, health.Engines[domain.FeatureRecognition].Status)
	assert.Equal(t, domain.HealthDisabled, health.Engines[domain.FeatureAnalysis].Status)
	assert.Equal(t, domain.HealthDisabled, health.Engines[domain.FeatureFraud].Status)
}

func TestHealthCheckUnhealthyEngineDegrades(t *testing.T) {
	log := logger.New()
	cfg := allEnabledConfig()
	cfg.AnalysisEnabled = false
	cfg.FraudEnabled = false
	cfg.ClassificationEnabled = false
	r := New(cfg, filestore.NewLocal(), log,
		WithRecognitionEngine(recognition.New(filestore.NewLocal(), log,
			recognition.WithBackend(&stubBackend{err: errors.New("worker pool exhausted")}))))
	require.NoError(t, r.Initialize(context.Background()))

	health := r.HealthCheck(context.Background())

	assert.Equal(t, domain.AggregateDegraded, health.Status)
	rec := health.Engines[domain.FeatureRecognition]
	assert.Equal(t, domain.HealthUnhealthy, rec.Status)
	assert.NotEmpty(t, rec.Err)
}

func TestShutdownIsIdempotentAndDisablesFeatures(t *testing.T) {
	r := newTestRegistry(t, allEnabledConfig())
	require.NoError(t, r.Initialize(context.Background()))

	require.NoError(t, r.Shutdown())
	require.NoError(t, r.Shutdown())

	for _, f := range domain.Features() {
		assert.False(t, r.IsEnabled(f), "feature %s", f)
	}
}
