package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"civis/internal/domain"
)

// HistoryPage is one window of a record's analysis history.
type HistoryPage struct {
	Records []domain.AnalysisRecord `json:"records"`
	Total   int                     `json:"total"`
}

// History returns the most-recent-first page of analysis records for a record
// reference. Total counts all matching records independent of the window;
// negative limit or offset values read as zero.
func (s *Service) History(ctx context.Context, recordRef string, limit, offset int) (HistoryPage, error) {
	if recordRef == "" {
		return HistoryPage{}, domain.NewEngineError(domain.ErrorInputInvalid,
			"pipeline", "record reference is required", nil)
	}
	if s.store == nil {
		return HistoryPage{}, domain.NewEngineError(domain.ErrorFeatureDisabled,
			"pipeline", "no history store configured", nil)
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := s.store.Query(ctx, recordRef, limit, offset)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("query history for %s: %w", recordRef, err)
	}
	return HistoryPage{Records: records, Total: total}, nil
}

func serializeSnapshot(data map[string]any) string {
	if len(data) == 0 {
		return "{}"
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(payload)
}
