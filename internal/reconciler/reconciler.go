// Package reconciler turns physical-presence signals into slot transitions.
// It tolerates unordered and duplicate delivery by checking the current slot
// status before acting, and it never infers departure from sensor absence.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/gateway"
	"smart-parking-engine/internal/hub"
	"smart-parking-engine/internal/pkg/clock"
	"smart-parking-engine/internal/registry"
)

// Event is one sensor reading. ObservedAt may be zero when the feed carries no
// timestamp; the engine clock is used instead.
type Event struct {
	SlotNumber string
	Detected   bool
	ObservedAt time.Time
}

type Reconciler struct {
	registry *registry.Registry
	gateway  gateway.Gateway
	hub      *hub.Hub
	clock    clock.Clock
	grace    time.Duration
	logger   *slog.Logger
}

func New(
	reg *registry.Registry,
	gw gateway.Gateway,
	h *hub.Hub,
	clk clock.Clock,
	grace time.Duration,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		registry: reg,
		gateway:  gw,
		hub:      h,
		clock:    clk,
		grace:    grace,
		logger:   logger,
	}
}

// Handle applies one presence event. It returns registry.ErrSlotNotFound for
// readings against slots this lot does not have; every other outcome is
// resolved internally (anomalies are logged, not surfaced — there is no
// requesting party to surface them to).
func (r *Reconciler) Handle(ctx context.Context, ev Event) error {
	snap, err := r.registry.Get(ev.SlotNumber)
	if err != nil {
		return err
	}

	if !ev.Detected {
		if snap.Status == slot.StatusParked {
			// Sensor dropout must not be confused with departure; only an
			// explicit release vacates a parked slot.
			r.logger.Debug("presence lost while parked, ignoring",
				slog.String("slot", ev.SlotNumber),
			)
		}
		return nil
	}

	switch snap.Status {
	case slot.StatusAvailable:
		// Unreserved presence never auto-occupies: it could be spoofing or an
		// unrelated vehicle.
		r.logger.Warn("presence detected on unreserved slot",
			slog.String("slot", ev.SlotNumber),
		)
		return nil

	case slot.StatusParked:
		r.logger.Debug("duplicate presence detection, already parked",
			slog.String("slot", ev.SlotNumber),
		)
		return nil

	case slot.StatusOccupied:
		now := ev.ObservedAt
		if now.IsZero() {
			now = r.clock.Now()
		}
		if !snap.Reservation.Window().AdmitsArrivalAt(now, r.grace) {
			r.logger.Warn("arrival outside booking window",
				slog.String("slot", ev.SlotNumber),
				slog.Time("observed_at", now),
				slog.Time("booking_start", snap.Reservation.Window().Start()),
				slog.Time("booking_end", snap.Reservation.Window().End()),
			)
			return nil
		}

		// Pinning the version keeps a detection that raced a release-and-rebook
		// from confirming a reservation whose window was never checked.
		confirmed, err := r.registry.CompareAndTransition(
			ev.SlotNumber, slot.StatusOccupied, snap.Version, slot.StatusParked, nil,
		)
		if err != nil {
			if errors.Is(err, registry.ErrConflict) {
				// A release or another detection won the race; the matching
				// expected-status caller took the action, we take none.
				r.logger.Debug("presence lost transition race",
					slog.String("slot", ev.SlotNumber),
				)
				return nil
			}
			return err
		}

		r.logger.Info("arrival confirmed",
			slog.String("slot", confirmed.Number),
			slog.String("user_id", confirmed.Reservation.Owner().UserID.String()),
			slog.Uint64("version", confirmed.Version),
		)
		r.gateway.Trigger(ctx, confirmed.Number)
		r.hub.AnnounceGateOpen(confirmed.Number)
		return nil
	}

	return nil
}
