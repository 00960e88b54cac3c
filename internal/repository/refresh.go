package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"rot-leaderboard/internal/domain"
)

// RefreshRepository stores an audit trail of leaderboard refreshes and the
// batch chunks that failed in them.
type RefreshRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRefreshRepository(sqlDB *sql.DB, logger zerolog.Logger) *RefreshRepository {
	return &RefreshRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *RefreshRepository) Record(ctx context.Context, run *domain.RefreshRun) error {
	if run.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		run.ID = id
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO refresh_runs (
			id, generation, year, month, status, players, unknown,
			failed_chunks, has_snapshot, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, int64(run.Generation), run.Year, run.Month, run.Status, run.Players, run.Unknown,
		run.FailedChunks, run.HasSnapshot, run.Error, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh run: %w", err)
	}

	for _, f := range run.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_failures (run_id, chunk_index, usernames, error)
			VALUES (?, ?, ?, ?)`,
			run.ID, f.ChunkIndex, strings.Join(f.Usernames, ","), f.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk failure %d: %w", f.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refresh run: %w", err)
	}

	r.logger.Debug().
		Str("run_id", run.ID).
		Str("status", run.Status).
		Int("failed_chunks", run.FailedChunks).
		Msg("refresh run recorded")
	return nil
}

// Recent returns the latest runs, newest first, with their chunk failures.
func (r *RefreshRepository) Recent(ctx context.Context, limit int) ([]domain.RefreshRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, generation, year, month, status, players, unknown,
		       failed_chunks, has_snapshot, error, started_at, finished_at
		FROM refresh_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh runs: %w", err)
	}
	defer rows.Close()

	var (
		runs  []domain.RefreshRun
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			run        domain.RefreshRun
			generation int64
			started    time.Time
			finished   time.Time
		)
		if err := rows.Scan(
			&run.ID, &generation, &run.Year, &run.Month, &run.Status, &run.Players, &run.Unknown,
			&run.FailedChunks, &run.HasSnapshot, &run.Error, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refresh run: %w", err)
		}
		run.Generation = uint64(generation)
		run.StartedAt = started
		run.FinishedAt = finished
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}

	if err := r.attachFailures(ctx, runs, index); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RefreshRepository) attachFailures(ctx context.Context, runs []domain.RefreshRun, index map[string]int) error {
	placeholders := make([]string, 0, len(runs))
	args := make([]any, 0, len(runs))
	for _, run := range runs {
		placeholders = append(placeholders, "?")
		args = append(args, run.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, chunk_index, usernames, error
		FROM chunk_failures
		WHERE run_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY run_id, chunk_index`, args...)
	if err != nil {
		return fmt.Errorf("failed to query chunk failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f         domain.ChunkFailure
			usernames string
		)
		if err := rows.Scan(&f.RunID, &f.ChunkIndex, &usernames, &f.Error); err != nil {
			return fmt.Errorf("failed to scan chunk failure: %w", err)
		}
		if usernames != "" {
			f.Usernames = strings.Split(usernames, ",")
		}
		i := index[f.RunID]
		runs[i].Failures = append(runs[i].Failures, f)
	}
	return rows.Err()
}
