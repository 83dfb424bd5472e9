// Package httpapi is the thin HTTP layer over the pipeline. It delegates to
// the pipeline service without embedding business logic; request validation,
// authentication and upload handling happen upstream of this service.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"civis/internal/domain"
	"civis/internal/pipeline"
	"civis/internal/recognition"
)

// Handler exposes the pipeline's logical operations as JSON endpoints.
type Handler struct {
	svc *pipeline.Service
}

// NewHandler wires the pipeline service into the HTTP layer.
func NewHandler(svc *pipeline.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts every pipeline endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/recognize", h.handleRecognize)
	r.Post("/process", h.handleProcess)
	r.Post("/analyze/document", h.handleAnalyzeDocument)
	r.Post("/analyze/fraud", h.handleDetectFraud)
	r.Post("/analyze/classify", h.handleClassify)
	r.Post("/analyze/validate", h.handleValidate)
	r.Post("/batch", h.handleBatch)
	r.Get("/history/{recordRef}", h.handleHistory)
	return r
}

type recognizeRequest struct {
	Path      string               `json:"path"`
	Language  string               `json:"language,omitempty"`
	Regions   []recognition.Region `json:"regions,omitempty"`
	RecordRef string               `json:"record_ref,omitempty"`
}

func (h *Handler) handleRecognize(w http.ResponseWriter, r *http.Request) {
	var req recognizeRequest
	if !decode(w, r, &req) {
		return
	}
	opts := pipeline.RecognizeOptions{Language: req.Language, RecordRef: req.RecordRef}
	if len(req.Regions) > 0 {
		writeJSON(w, http.StatusOK, h.svc.RecognizeRegions(r.Context(), req.Path, req.Regions, opts))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Recognize(r.Context(), req.Path, opts))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ProcessRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Process(r.Context(), req))
}

func (h *Handler) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var req pipeline.AnalyzeDocumentRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AnalyzeDocument(r.Context(), req))
}

func (h *Handler) handleDetectFraud(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DetectFraudRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DetectFraud(r.Context(), req))
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ClassifyRecordRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ClassifyRecord(r.Context(), req))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ValidateDataRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ValidateData(r.Context(), req))
}

type batchRequest struct {
	Files    []string        `json:"files"`
	Task     domain.TaskKind `json:"task_kind"`
	Language string          `json:"language,omitempty"`
	DocType  string          `json:"doc_type,omitempty"`
	Context  map[string]any  `json:"context,omitempty"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Task != "" && !req.Task.Valid() {
		writeError(w, http.StatusBadRequest, "unknown task kind")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.BatchProcess(r.Context(), req.Files, req.Task, pipeline.BatchOptions{
		Language: req.Language,
		DocType:  req.DocType,
		Context:  req.Context,
	}))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	recordRef := chi.URLParam(r, "recordRef")
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	page, err := h.svc.History(r.Context(), recordRef, limit, offset)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// statusFor maps the error taxonomy to HTTP statuses.
func statusFor(err error) int {
	switch domain.Category(err) {
	case domain.ErrorInputInvalid:
		return http.StatusBadRequest
	case domain.ErrorFeatureDisabled:
		return http.StatusServiceUnavailable
	case domain.ErrorNotInitialized, domain.ErrorEngineFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
