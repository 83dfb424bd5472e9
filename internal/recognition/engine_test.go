package recognition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civis/internal/domain"
	"civis/internal/filestore"
	"civis/internal/platform/logger"
)

// fakeBackend returns canned output and records what it was asked for.
type fakeBackend struct {
	text  string
	words []domain.ScoredWord
	err   error
	panic bool

	calls []Request
}

func (f *fakeBackend) Recognize(_ context.Context, req Request) (string, []domain.ScoredWord, error) {
	f.calls = append(f.calls, req)
	if f.panic {
		panic("backend exploded")
	}
	return f.text, f.words, f.err
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.png")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestEngine(t *testing.T, backend *fakeBackend) *Engine {
	t.Helper()
	e := New(filestore.NewLocal(), logger.New(), WithBackend(backend))
	require.NoError(t, e.Initialize("eng"))
	return e
}

func TestExtractTextSuccess(t *testing.T) {
	backend := &fakeBackend{
		text:  "  Birth   Certificate  \n\n\n",
		words: []domain.ScoredWord{{Text: "Birth", Score: 91}, {Text: "Certificate", Score: 88}},
	}
	e := newTestEngine(t, backend)
	path := writeTestFile(t, "image-bytes")

	res := e.ExtractText(context.Background(), path, ExtractOptions{})

	assert.True(t, res.Success)
	assert.Equal(t, "Birth Certificate", res.Text)
	assert.Empty(t, res.Err)
	assert.Equal(t, "eng", res.Language)
	assert.Equal(t, domain.QualityExcellent, res.Confidence.Quality)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, []byte("image-bytes"), backend.calls[0].Image)
	assert.Equal(t, defaultWhitelist, backend.calls[0].Whitelist)
}

func TestExtractTextMissingFile(t *testing.T) {
	backend := &fakeBackend{}
	e := newTestEngine(t, backend)

	res := e.ExtractText(context.Background(), "/nonexistent/doc.png", ExtractOptions{})

	assert.False(t, res.Success)
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Err, "not found")
	assert.Empty(t, backend.calls, "backend must not run without an input file")
}

func TestExtractTextUnsupportedLanguage(t *testing.T) {
	e := newTestEngine(t, &fakeBackend{})
	path := writeTestFile(t, "x")

	res := e.ExtractText(context.Background(), path, ExtractOptions{Language: "klingon"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "unsupported language")
}

func TestExtractTextPerCallLanguage(t *testing.T) {
	backend := &fakeBackend{text: "hola"}
	e := newTestEngine(t, backend)
	path := writeTestFile(t, "x")

	res := e.ExtractText(context.Background(), path, ExtractOptions{Language: "spa"})

	assert.True(t, res.Success)
	assert.Equal(t, "spa", res.Language)
	// The per-call language never touches the default.
	assert.Equal(t, "eng", e.DefaultLanguage())
}

func TestExtractTextBackendFailure(t *testing.T) {
	e := newTestEngine(t, &fakeBackend{err: errors.New("tesseract: cube misaligned")})
	path := writeTestFile(t, "x")

	res := e.ExtractText(context.Background(), path, ExtractOptions{})

	assert.False(t, res.Success)
	// Internals never leak to callers.
	assert.Equal(t, "recognition failed", res.Err)
}

func TestExtractTextBackendPanicIsContained(t *testing.T) {
	e := newTestEngine(t, &fakeBackend{panic: true})
	path := writeTestFile(t, "x")

	res := e.ExtractText(context.Background(), path, ExtractOptions{})

	assert.False(t, res.Success)
}

func TestExtractTextNotInitialized(t *testing.T) {
	e := New(filestore.NewLocal(), logger.New(), WithBackend(&fakeBackend{}))

	res := e.ExtractText(context.Background(), "anything", ExtractOptions{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err, "not initialized")
}

func TestExtractRegionsOneResultPerRegion(t *testing.T) {
	backend := &fakeBackend{text: "ok", words: []domain.ScoredWord{{Text: "ok", Score: 90}}}
	e := newTestEngine(t, backend)
	path := writeTestFile(t, "x")

	regions := []Region{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 10, Y: 0, Width: 10, Height: 10},
	}
	results := e.ExtractRegions(context.Background(), path, regions, ExtractOptions{})

	require.Len(t, results, 2)
	for i, res := range results {
		assert.True(t, res.Success, "region %d", i)
	}
	require.Len(t, backend.calls, 2)
	assert.Equal(t, &regions[0], backend.calls[0].Region)
	assert.Equal(t, &regions[1], backend.calls[1].Region)
}

func TestChangeLanguage(t *testing.T) {
	e := newTestEngine(t, &fakeBackend{})

	require.NoError(t, e.ChangeLanguage("fra"))
	assert.Equal(t, "fra", e.DefaultLanguage())

	err := e.ChangeLanguage("tlh")
	assert.ErrorIs(t, err, domain.ErrUnsupportedLanguage)
	assert.Equal(t, "fra", e.DefaultLanguage())
}

func TestInitializeRejectsUnsupportedDefault(t *testing.T) {
	e := New(filestore.NewLocal(), logger.New(), WithBackend(&fakeBackend{}))
	assert.ErrorIs(t, e.Initialize("tlh"), domain.ErrUnsupportedLanguage)
}

func TestHealthCheck(t *testing.T) {
	backend := &fakeBackend{text: "probe"}
	e := newTestEngine(t, backend)

	require.NoError(t, e.HealthCheck(context.Background()))
	require.Len(t, backend.calls, 1)
	assert.NotEmpty(t, backend.calls[0].Image)

	backend.err = errors.New("worker gone")
	assert.Error(t, e.HealthCheck(context.Background()))
}

func TestHealthCheckBeforeInitialize(t *testing.T) {
	e := New(filestore.NewLocal(), logger.New(), WithBackend(&fakeBackend{}))
	assert.Error(t, e.HealthCheck(context.Background()))
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newTestEngine(t, &fakeBackend{})

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	res := e.ExtractText(context.Background(), "anything", ExtractOptions{})
	assert.False(t, res.Success)
}
