package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LookupRepository implements port.LookupHistoryRepository backed by PostgreSQL.
type LookupRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLookupRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewLookupRepository(exec pgExecutor) *LookupRepository {
	repo := &LookupRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Record inserts a terminal lookup outcome.
func (r *LookupRepository) Record(ctx context.Context, record domain.LookupRecord) error {
	sql, args, err := r.builder.Insert("rera.lookups").
		Columns(
			"id",
			"rera_number",
			"peer_key",
			"response",
			"outcome",
			"requested_at",
			"completed_at",
		).
		Values(
			record.ID,
			record.ReraNumber,
			record.PeerKey,
			record.Response,
			string(record.Outcome),
			record.RequestedAt,
			record.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert lookup sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lookup record: %w", err)
	}
	return nil
}

// List returns the most recent lookup records, newest first.
func (r *LookupRepository) List(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	sql, args, err := r.builder.Select(
		"id",
		"rera_number",
		"peer_key",
		"response",
		"outcome",
		"requested_at",
		"completed_at",
	).
		From("rera.lookups").
		OrderBy("requested_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select lookups sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer rows.Close()

	records := make([]domain.LookupRecord, 0, limit)
	for rows.Next() {
		var (
			record  domain.LookupRecord
			outcome string
		)
		if err := rows.Scan(
			&record.ID,
			&record.ReraNumber,
			&record.PeerKey,
			&record.Response,
			&outcome,
			&record.RequestedAt,
			&record.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lookup record: %w", err)
		}
		record.Outcome = domain.LookupOutcome(outcome)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}

	return records, nil
}
