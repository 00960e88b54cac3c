package fx

import (
	"rot-leaderboard/internal/api"
	"rot-leaderboard/internal/config"
	"rot-leaderboard/internal/database"
	"rot-leaderboard/internal/logger"
	"rot-leaderboard/internal/repository"
	"rot-leaderboard/internal/server"
	"rot-leaderboard/internal/service"

	"go.uber.org/fx"
)

func ProvideBoardCache(svc *service.LeaderboardService, cfg *config.Config) *service.BoardCache {
	return service.NewBoardCache(svc, cfg.BoardTTL)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(fx.Annotate(
		repository.NewRefreshRepository,
		fx.As(fx.Self(), new(service.RunRecorder), new(server.RunLister)),
	)),
	// api client
	fx.Provide(fx.Annotate(
		api.NewStatsClient,
		fx.As(new(service.StatsAPI)),
	)),
	// svc
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(ProvideBoardCache),
	// server
	fx.Provide(server.NewLeaderboardServer),
)
