package components

import (
	"log/slog"

	"smart-parking-engine/internal/pkg/clock"
	"smart-parking-engine/internal/pkg/config"
	"smart-parking-engine/internal/registry"
	"smart-parking-engine/internal/usecase/commands"
	"smart-parking-engine/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(reg *registry.Registry, clk clock.Clock, cfg config.Config, logger *slog.Logger) commands.BookingCommands {
			return commands.NewBookingCommands(reg, clk, cfg.Sweep.BookingStartSkew, logger)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewSlotQueries,
	),
)
