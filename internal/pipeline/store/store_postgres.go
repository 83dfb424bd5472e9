package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"civis/internal/domain"
)

// Postgres persists analysis records in PostgreSQL via pgx.
//
// Expected schema:
//
//	create table analysis_records (
//	    id               uuid primary key,
//	    record_ref       text not null,
//	    task_kind        text not null,
//	    model_used       text not null,
//	    input_snapshot   text not null,
//	    output_snapshot  text not null,
//	    confidence       double precision not null,
//	    status           text not null,
//	    processing_ms    bigint not null,
//	    created_at       timestamptz not null
//	);
//	create index analysis_records_ref_idx on analysis_records (record_ref, created_at desc);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed store over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Insert(ctx context.Context, record *domain.AnalysisRecord) error {
	const q = `
insert into analysis_records (
    id, record_ref, task_kind, model_used, input_snapshot, output_snapshot,
    confidence, status, processing_ms, created_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := p.pool.Exec(ctx, q,
		record.ID,
		record.RecordRef,
		string(record.Task),
		record.Model,
		record.Input,
		record.Output,
		record.Confidence,
		string(record.Status),
		record.ProcessingTime.Milliseconds(),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis record: %w", err)
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, recordRef string, limit, offset int) ([]domain.AnalysisRecord, int, error) {
	var total int
	const countQ = `select count(*) from analysis_records where record_ref = $1`
	if err := p.pool.QueryRow(ctx, countQ, recordRef).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analysis records: %w", err)
	}

	if limit <= 0 {
		limit = total
	}
	// Postgres rejects a negative OFFSET outright; read it as zero instead.
	if offset < 0 {
		offset = 0
	}
	const q = `
select id, record_ref, task_kind, model_used, input_snapshot, output_snapshot,
       confidence, status, processing_ms, created_at
from analysis_records
where record_ref = $1
order by created_at desc
limit $2 offset $3`
	rows, err := p.pool.Query(ctx, q, recordRef, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query analysis records: %w", err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		var (
			r            domain.AnalysisRecord
			task, status string
			processingMs int64
		)
		if err := rows.Scan(&r.ID, &r.RecordRef, &task, &r.Model, &r.Input, &r.Output,
			&r.Confidence, &status, &processingMs, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan analysis record: %w", err)
		}
		r.Task = domain.TaskKind(task)
		r.Status = domain.RecordStatus(status)
		r.ProcessingTime = time.Duration(processingMs) * time.Millisecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate analysis records: %w", err)
	}
	return records, total, nil
}
