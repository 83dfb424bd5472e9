package store

import (
	"context"
	"sort"
	"sync"

	"civis/internal/domain"
)

// Memory is an in-memory Store for tests and single-process deployments.
type Memory struct {
	mu      sync.RWMutex
	records []domain.AnalysisRecord
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(_ context.Context, record *domain.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *Memory) Query(_ context.Context, recordRef string, limit, offset int) ([]domain.AnalysisRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []domain.AnalysisRecord
	for _, r := range m.records {
		if r.RecordRef == recordRef {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	// A negative offset reads as zero.
	if offset < 0 {
		offset = 0
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	page := make([]domain.AnalysisRecord, end-offset)
	copy(page, matched[offset:end])
	return page, total, nil
}
