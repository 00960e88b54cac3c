package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rot-leaderboard/internal/config"
	"rot-leaderboard/internal/constants"
	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
)

// StatsAPI is the subset of the stats client the pipeline needs.
type StatsAPI interface {
	FetchDirectory(ctx context.Context) (*domain.Directory, error)
	FetchBatch(ctx context.Context, usernames []string) ([]domain.PlayerRecord, error)
	FetchSnapshot(ctx context.Context, year, month string) (*domain.Snapshot, error)
	FetchLastUpdate(ctx context.Context) (string, error)
}

// RunRecorder persists refresh runs. It is optional.
type RunRecorder interface {
	Record(ctx context.Context, run *domain.RefreshRun) error
}

// Board is the outcome of one refresh. Err is set when the directory could
// not be loaded; the board then has no rows.
type Board struct {
	Period     domain.Period
	Generation uint64
	Directory  *domain.Directory
	Snapshot   *domain.Snapshot
	Rows       []leaderboard.DisplayRow
	Failures   []domain.ChunkFailure
	Unknown    []string
	Err        error
	LoadedAt   time.Time
}

func (b *Board) Partial() bool {
	return len(b.Failures) > 0
}

type LeaderboardService struct {
	api         StatsAPI
	recorder    RunRecorder
	batchSize   int
	concurrency int
	weighting   leaderboard.Weighting
	logger      zerolog.Logger
	now         func() time.Time
}

func NewLeaderboardService(api StatsAPI, recorder RunRecorder, cfg *config.Config, logger zerolog.Logger) (*LeaderboardService, error) {
	weighting, err := leaderboard.ParseWeighting(cfg.ScoreWeighting)
	if err != nil {
		return nil, err
	}
	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &LeaderboardService{
		api:         api,
		recorder:    recorder,
		batchSize:   cfg.BatchSize,
		concurrency: concurrency,
		weighting:   weighting,
		logger:      logger.With().Str("component", "leaderboard").Logger(),
		now:         time.Now,
	}, nil
}

func (s *LeaderboardService) Weighting() leaderboard.Weighting {
	return s.weighting
}

// Load runs the whole pipeline for period. It never fails outright: a
// directory failure is reported through Board.Err and chunk failures through
// Board.Failures.
func (s *LeaderboardService) Load(ctx context.Context, period domain.Period, generation uint64) *Board {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	start := s.now()
	board := &Board{Period: period, Generation: generation}
	log := s.logger.With().Str("period", period.String()).Uint64("generation", generation).Logger()

	if !period.IsAllMonths() {
		snap, err := s.api.FetchSnapshot(ctx, period.Year, period.Month)
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch leaderboard history, using live data")
		}
		board.Snapshot = snap
	}

	live, err := s.api.FetchDirectory(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch players list")
		board.Err = fmt.Errorf("leaderboard unavailable: %w", err)
		board.LoadedAt = s.now()
		s.record(ctx, board, start)
		return board
	}

	dir := leaderboard.EffectiveDirectory(live, board.Snapshot)
	board.Directory = dir

	records, failures := s.fetchRecords(ctx, dir.Order, log)
	board.Failures = failures

	rows, unknown := leaderboard.BuildRows(leaderboard.BuildInput{
		Records:   records,
		Directory: dir,
		Snapshot:  board.Snapshot,
		Period:    period,
		Weighting: s.weighting,
	})
	if len(unknown) > 0 {
		log.Error().Strs("usernames", unknown).Msg("batch returned players missing from the directory")
	}
	board.Rows = rows
	board.Unknown = unknown
	board.LoadedAt = s.now()

	log.Info().
		Int("players", len(rows)).
		Int("failed_chunks", len(failures)).
		Bool("history", board.Snapshot != nil).
		Dur("duration", board.LoadedAt.Sub(start)).
		Msg("leaderboard refreshed")

	s.record(ctx, board, start)
	return board
}

// fetchRecords fetches usernames chunk by chunk. With concurrency 1 each
// chunk starts only after the previous one finished. Results keep chunk
// order; failed chunks are reported and skipped.
func (s *LeaderboardService) fetchRecords(ctx context.Context, usernames []string, log zerolog.Logger) ([]domain.PlayerRecord, []domain.ChunkFailure) {
	chunks := leaderboard.Chunk(usernames, s.batchSize)
	results := make([][]domain.PlayerRecord, len(chunks))
	errs := make([]error, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			recs, err := s.api.FetchBatch(ctx, chunk)
			if err != nil {
				log.Error().Err(err).Int("chunk", i).Int("size", len(chunk)).Msg("failed to fetch players batch")
				errs[i] = err
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	var (
		records  []domain.PlayerRecord
		failures []domain.ChunkFailure
	)
	for i := range chunks {
		if errs[i] != nil {
			failures = append(failures, domain.ChunkFailure{
				ChunkIndex: i,
				Usernames:  chunks[i],
				Error:      errs[i].Error(),
			})
			continue
		}
		records = append(records, results[i]...)
	}
	return records, failures
}

func (s *LeaderboardService) LastUpdate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	text, err := s.api.FetchLastUpdate(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch last update")
		return "", err
	}
	return text, nil
}

func (s *LeaderboardService) record(ctx context.Context, b *Board, start time.Time) {
	if s.recorder == nil {
		return
	}
	run := &domain.RefreshRun{
		Generation:   b.Generation,
		Year:         b.Period.Year,
		Month:        b.Period.Month,
		Status:       runStatus(b),
		Players:      len(b.Rows),
		Unknown:      len(b.Unknown),
		FailedChunks: len(b.Failures),
		HasSnapshot:  b.Snapshot != nil,
		StartedAt:    start,
		FinishedAt:   b.LoadedAt,
		Failures:     b.Failures,
	}
	if b.Err != nil {
		run.Error = b.Err.Error()
	}
	// the refresh context may already be cancelled by a newer request
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()
	if err := s.recorder.Record(recCtx, run); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record refresh run")
	}
}

func runStatus(b *Board) string {
	switch {
	case b.Err != nil:
		return "failed"
	case len(b.Failures) > 0 || len(b.Unknown) > 0:
		return "partial"
	}
	return "ok"
}
