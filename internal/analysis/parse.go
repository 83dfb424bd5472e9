package analysis

import (
	"encoding/json"
	"strings"
	"time"

	"civis/internal/domain"
)

// payload is implemented by every task shape so parsing can enforce the
// per-task schema after the bare JSON decode.
type payload interface {
	validate() error
}

// parseResult decodes a model response strictly into the expected task shape.
// A malformed response is an expected, recoverable condition: the result flips
// to failure and carries the untouched raw text, but no error is ever raised.
// The raw text is retained on success as well so operators can always inspect
// exactly what the model said.
func parseResult(task domain.TaskKind, raw string, into payload) domain.AnalysisResult {
	res := domain.AnalysisResult{
		Task:        task,
		RawResponse: raw,
		Timestamp:   time.Now().UTC(),
	}

	cleaned := stripCodeFences(strings.TrimSpace(raw))
	if err := json.Unmarshal([]byte(cleaned), into); err != nil {
		res.Err = "failed to parse model response"
		return res
	}
	if err := into.validate(); err != nil {
		res.Err = "model response failed schema validation: " + err.Error()
		return res
	}

	data, err := json.Marshal(into)
	if err != nil {
		res.Err = "failed to encode parsed response"
		return res
	}
	res.Success = true
	res.Data = data
	return res
}

// stripCodeFences unwraps ```json ... ``` fencing that models add despite
// being told to answer with bare JSON.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop the language tag line (```json).
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
