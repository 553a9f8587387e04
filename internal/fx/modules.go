package fx

import (
	"hirez-stats/internal/config"
	"hirez-stats/internal/logger"
	"hirez-stats/internal/server"
	"hirez-stats/pkg/hirez"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClient(cfg *config.Config, log zerolog.Logger) (*hirez.Client, error) {
	return hirez.NewClient(cfg.ClientConfig(log.With().Str("component", "hirez").Logger()))
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// api client
	fx.Provide(ProvideClient),
	// server
	fx.Provide(server.NewStatsServer),
)
