package components

import (
	"context"
	"log/slog"

	"smart-parking-engine/internal/gateway"
	"smart-parking-engine/internal/hub"
	"smart-parking-engine/internal/infra/journal"
	"smart-parking-engine/internal/pkg/clock"
	"smart-parking-engine/internal/pkg/config"
	"smart-parking-engine/internal/reconciler"
	"smart-parking-engine/internal/registry"
	"smart-parking-engine/internal/sensor"
	"smart-parking-engine/internal/sweeper"
	"smart-parking-engine/internal/usecase/commands"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// EngineModule assembles the in-memory core: registry, hub, journal,
// reconciler, and the background sensor consumer and expiry sweep.
var EngineModule = fx.Module("engine",
	fx.Provide(
		clock.NewRealClock,
		NewHub,
		NewJournal,
		NewRegistry,
		NewReconciler,
	),
	fx.Invoke(
		StartSweeper,
		StartSensorConsumer,
	),
)

func NewHub(cfg config.Config, logger *slog.Logger) *hub.Hub {
	return hub.New(cfg.Hub.SubscriberBuffer, logger)
}

// NewJournal returns nil when no database pool exists; the registry simply
// gets one listener fewer.
func NewJournal(lc fx.Lifecycle, pool *pgxpool.Pool, logger *slog.Logger) *journal.Journal {
	if pool == nil {
		return nil
	}

	j := journal.New(pool, 256, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			j.Close()
			return nil
		},
	})
	return j
}

func NewRegistry(cfg config.Config, h *hub.Hub, j *journal.Journal, logger *slog.Logger) *registry.Registry {
	listeners := []registry.TransitionListener{h}
	if j != nil {
		listeners = append(listeners, j)
	}
	return registry.New(cfg.Lot.Slots, logger, listeners...)
}

func NewReconciler(
	reg *registry.Registry,
	gw gateway.Gateway,
	h *hub.Hub,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) *reconciler.Reconciler {
	return reconciler.New(reg, gw, h, clk, cfg.Sweep.PresenceGrace, logger)
}

func StartSweeper(
	lc fx.Lifecycle,
	bookingCommands commands.BookingCommands,
	cfg config.Config,
	clk clock.Clock,
	logger *slog.Logger,
) {
	sw := sweeper.New(bookingCommands, cfg.Sweep.Interval, clk, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return sw.Start()
		},
		OnStop: func(_ context.Context) error {
			sw.Stop()
			return nil
		},
	})
}

// StartSensorConsumer wires the queue feed when one is configured. The
// consumer's context is cancelled on shutdown so the long poll unblocks.
func StartSensorConsumer(
	lc fx.Lifecycle,
	client *sqs.Client,
	rec *reconciler.Reconciler,
	cfg config.Config,
	logger *slog.Logger,
) {
	if client == nil {
		logger.Info("no sensor queue configured, queue consumer disabled")
		return
	}

	consumer := sensor.NewSQSConsumer(client, cfg.AWS.SQSEventQueueURL, rec, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				consumer.Start(ctx)
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
