package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type SnapshotRepository interface {
	Create(ctx context.Context, s *model.Snapshot) error
	ListByHandle(ctx context.Context, handle string, limit int) ([]model.Snapshot, error)
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS profile_snapshots (
	id                UUID PRIMARY KEY,
	handle            TEXT        NOT NULL,
	rating            INTEGER     NOT NULL DEFAULT 0,
	max_rating        INTEGER     NOT NULL DEFAULT 0,
	rank              TEXT        NOT NULL DEFAULT '',
	unique_solves     INTEGER     NOT NULL,
	total_submissions INTEGER     NOT NULL,
	verdict_counts    JSONB       NOT NULL,
	tag_counts        JSONB       NOT NULL,
	run_id            TEXT        NOT NULL,
	fetched_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profile_snapshots_handle_fetched
	ON profile_snapshots (handle, fetched_at DESC);`

// EnsureSnapshotSchema creates the snapshots table when missing.
func EnsureSnapshotSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("EnsureSnapshotSchema: %w", err)
	}
	return nil
}

type pgSnapshotRepository struct {
	db *sql.DB
}

func NewPgSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &pgSnapshotRepository{db: db}
}

func (r *pgSnapshotRepository) Create(ctx context.Context, s *model.Snapshot) error {
	verdicts, err := json.Marshal(s.VerdictCounts)
	if err != nil {
		return fmt.Errorf("pgSnapshotRepository.Create: marshal verdicts: %w", err)
	}
	tags, err := json.Marshal(s.TagCounts)
	if err != nil {
		return fmt.Errorf("pgSnapshotRepository.Create: marshal tags: %w", err)
	}

	query := `INSERT INTO profile_snapshots
	          (id, handle, rating, max_rating, rank, unique_solves, total_submissions, verdict_counts, tag_counts, run_id, fetched_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.Handle, s.Rating, s.MaxRating, s.Rank, s.UniqueSolves, s.TotalSubmissions,
		verdicts, tags, s.RunID, s.FetchedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("snapshot %s already recorded: %w", s.ID, common.ErrBadRequest)
		}
		return fmt.Errorf("pgSnapshotRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSnapshotRepository) ListByHandle(ctx context.Context, handle string, limit int) ([]model.Snapshot, error) {
	query := `SELECT id, handle, rating, max_rating, rank, unique_solves, total_submissions,
	                 verdict_counts, tag_counts, run_id, fetched_at
	          FROM profile_snapshots WHERE handle = $1
	          ORDER BY fetched_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, model.HandleKey(handle), limit)
	if err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.ListByHandle: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		var verdicts, tags []byte
		if err := rows.Scan(&s.ID, &s.Handle, &s.Rating, &s.MaxRating, &s.Rank, &s.UniqueSolves,
			&s.TotalSubmissions, &verdicts, &tags, &s.RunID, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("pgSnapshotRepository.ListByHandle scan: %w", err)
		}
		if err := json.Unmarshal(verdicts, &s.VerdictCounts); err != nil {
			return nil, fmt.Errorf("pgSnapshotRepository.ListByHandle verdicts: %w", err)
		}
		if err := json.Unmarshal(tags, &s.TagCounts); err != nil {
			return nil, fmt.Errorf("pgSnapshotRepository.ListByHandle tags: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.ListByHandle rows: %w", err)
	}
	return snapshots, nil
}

// NoopSnapshotRepository is used when snapshots are disabled.
type NoopSnapshotRepository struct{}

func (NoopSnapshotRepository) Create(context.Context, *model.Snapshot) error { return nil }

func (NoopSnapshotRepository) ListByHandle(context.Context, string, int) ([]model.Snapshot, error) {
	return []model.Snapshot{}, nil
}
