package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rot-leaderboard/internal/constants"
	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
	"rot-leaderboard/internal/service"
)

const (
	ServicePath             = "/rotboard.v1.LeaderboardService/"
	GetLeaderboardProcedure = ServicePath + "GetLeaderboard"
	GetLastUpdateProcedure  = ServicePath + "GetLastUpdate"
	ListRefreshesProcedure  = ServicePath + "ListRefreshes"
)

type BoardSource interface {
	Board(ctx context.Context, period domain.Period) (*service.Board, error)
}

type LastUpdater interface {
	LastUpdate(ctx context.Context) (string, error)
}

type RunLister interface {
	Recent(ctx context.Context, limit int) ([]domain.RefreshRun, error)
}

type LeaderboardServer struct {
	boards  BoardSource
	updates LastUpdater
	runs    RunLister
	logger  zerolog.Logger
	now     func() time.Time
}

func NewLeaderboardServer(boards *service.BoardCache, svc *service.LeaderboardService, runs RunLister, logger zerolog.Logger) *LeaderboardServer {
	return newLeaderboardServer(boards, svc, runs, logger)
}

func newLeaderboardServer(boards BoardSource, updates LastUpdater, runs RunLister, logger zerolog.Logger) *LeaderboardServer {
	return &LeaderboardServer{boards: boards, updates: updates, runs: runs, logger: logger, now: time.Now}
}

// Handler mounts every procedure of the service on one http.Handler.
func (s *LeaderboardServer) Handler() (string, http.Handler) {
	mux := http.NewServeMux()
	jsonOnly := connect.WithCodec(jsonCodec{})

	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, s.GetLeaderboard, jsonOnly))
	mux.Handle(ListRefreshesProcedure, connect.NewUnaryHandler(ListRefreshesProcedure, s.ListRefreshes, jsonOnly))
	mux.Handle(GetLastUpdateProcedure, connect.NewUnaryHandler(GetLastUpdateProcedure, s.GetLastUpdate))
	return ServicePath, mux
}

func (s *LeaderboardServer) GetLeaderboard(ctx context.Context, req *connect.Request[LeaderboardRequest]) (*connect.Response[LeaderboardResponse], error) {
	msg := req.Msg
	period := domain.CurrentPeriod(s.now())
	if msg.Year != "" || msg.Month != "" {
		year := msg.Year
		if year == "" {
			year = period.Year
		}
		p, err := domain.ParsePeriod(year, msg.Month)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		period = p
	}

	state, err := leaderboard.ParseViewState(msg.Category, msg.Search, msg.Sort, msg.Direction)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	board, err := s.boards.Board(ctx, period)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if board.Err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, board.Err)
	}

	visible := leaderboard.Apply(board.Rows, state)
	rows := make([]Row, 0, len(visible))
	for _, r := range visible {
		rows = append(rows, toRow(r))
	}

	zerolog.Ctx(ctx).Debug().
		Str("period", period.String()).
		Str("category", string(state.Category)).
		Int("rows", len(rows)).
		Msg("leaderboard served")

	return connect.NewResponse(&LeaderboardResponse{
		Period:       period.String(),
		Generation:   board.Generation,
		Category:     string(state.Category),
		Sort:         string(state.Column),
		Direction:    string(state.Direction),
		History:      board.Snapshot != nil,
		FailedChunks: len(board.Failures),
		LoadedAt:     board.LoadedAt,
		Total:        len(board.Rows),
		Rows:         rows,
	}), nil
}

func (s *LeaderboardServer) GetLastUpdate(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.StringValue], error) {
	text, err := s.updates.LastUpdate(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewResponse(wrapperspb.String(text)), nil
}

func (s *LeaderboardServer) ListRefreshes(ctx context.Context, req *connect.Request[ListRefreshesRequest]) (*connect.Response[ListRefreshesResponse], error) {
	if s.runs == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("refresh history is not configured"))
	}
	limit := req.Msg.Limit
	if limit <= 0 || limit > 100 {
		limit = constants.RefreshHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	runs, err := s.runs.Recent(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list refresh runs")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := make([]RefreshRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRefreshRun(r))
	}
	return connect.NewResponse(&ListRefreshesResponse{Runs: out}), nil
}
