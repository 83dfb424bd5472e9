// Package store persists the append-only analysis history. Records are
// created once per pipeline invocation and never mutated.
package store

import (
	"context"

	"civis/internal/domain"
)

// Store is the persistence collaborator contract for analysis history.
type Store interface {
	// Insert appends one record. The record's ID must be set by the caller.
	Insert(ctx context.Context, record *domain.AnalysisRecord) error

	// Query returns the most-recent-first page of records for recordRef plus
	// the total count independent of the page window.
	Query(ctx context.Context, recordRef string, limit, offset int) ([]domain.AnalysisRecord, int, error)
}
