package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smart-parking-engine/internal/domain/reservation"
	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/domain/user"
	"smart-parking-engine/internal/pkg/clock"
	"smart-parking-engine/internal/pkg/errs"
	"smart-parking-engine/internal/registry"
)

var (
	ErrSlotNotFound = errs.New("slot not found")
	// ErrSlotTaken means another request won the race for the slot; the caller
	// must refresh its slot list before retrying — the manager never retries.
	ErrSlotTaken     = errs.New("slot already taken")
	ErrInvalidWindow = errs.New("invalid booking window")
	ErrAlreadyBooked = errs.New("user already holds a reservation")
	ErrNotOwner      = errs.New("not the reservation owner")
)

// AlreadyBookedError names the slot the user already holds, so the dashboard
// can offer releasing it.
type AlreadyBookedError struct {
	HeldSlot string
}

func (e *AlreadyBookedError) Error() string {
	return fmt.Sprintf("user already holds a reservation on slot %s", e.HeldSlot)
}

func (e *AlreadyBookedError) Is(target error) bool {
	return target == ErrAlreadyBooked
}

type BookingCommands interface {
	Book(ctx context.Context, slotNumber string, identity reservation.Identity, start, end time.Time) (slot.Snapshot, error)
	Release(ctx context.Context, slotNumber string, identity reservation.Identity, role user.Role) (slot.Snapshot, error)
	ExpireOverdue(ctx context.Context, now time.Time) int
}

type bookingCommandsImpl struct {
	registry *registry.Registry
	clock    clock.Clock
	skew     time.Duration

	// One exclusion domain per user: the has-no-active-reservation check and
	// the slot commit must be atomic against other bookings by the same user,
	// but different users must not serialize on each other.
	userLocks sync.Map // uuid string -> *sync.Mutex

	logger *slog.Logger
}

func NewBookingCommands(reg *registry.Registry, clk clock.Clock, bookingStartSkew time.Duration, logger *slog.Logger) BookingCommands {
	return &bookingCommandsImpl{
		registry: reg,
		clock:    clk,
		skew:     bookingStartSkew,
		logger:   logger,
	}
}

func (b *bookingCommandsImpl) Book(
	ctx context.Context,
	slotNumber string,
	identity reservation.Identity,
	start, end time.Time,
) (slot.Snapshot, error) {
	now := b.clock.Now()

	window, err := reservation.NewWindow(start, end, now, b.skew)
	if err != nil {
		return slot.Snapshot{}, errs.Mark(err, ErrInvalidWindow)
	}
	res, err := reservation.NewReservation(identity, window, now)
	if err != nil {
		return slot.Snapshot{}, errs.Mark(err, ErrInvalidWindow)
	}

	unlock := b.lockUser(identity.UserID.String())
	defer unlock()

	if held, ok := b.registry.ActiveSlotOf(identity.UserID); ok {
		return slot.Snapshot{}, &AlreadyBookedError{HeldSlot: held}
	}

	current, err := b.registry.Get(slotNumber)
	if err != nil {
		return slot.Snapshot{}, ErrSlotNotFound
	}
	if current.Status != slot.StatusAvailable {
		return slot.Snapshot{}, ErrSlotTaken
	}

	snap, err := b.registry.CompareAndTransition(
		slotNumber, slot.StatusAvailable, current.Version, slot.StatusOccupied, res,
	)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrSlotNotFound):
			return slot.Snapshot{}, ErrSlotNotFound
		case errors.Is(err, registry.ErrConflict):
			return slot.Snapshot{}, ErrSlotTaken
		default:
			return slot.Snapshot{}, err
		}
	}

	b.logger.Info("slot booked",
		slog.String("slot", snap.Number),
		slog.String("user_id", identity.UserID.String()),
		slog.Time("booking_start", window.Start()),
		slog.Time("booking_end", window.End()),
	)
	return snap, nil
}

// Release vacates the slot. Releasing an already-available slot is a no-op
// success, so a retry after a dropped acknowledgment is harmless.
func (b *bookingCommandsImpl) Release(
	ctx context.Context,
	slotNumber string,
	identity reservation.Identity,
	role user.Role,
) (slot.Snapshot, error) {
	// A sensor-driven occupied→parked transition can race this call, so the
	// expected status is re-read on conflict. Each conflict means the status
	// changed, and the lifecycle is finite, so a couple of attempts settle it.
	for attempt := 0; attempt < 3; attempt++ {
		snap, err := b.registry.Get(slotNumber)
		if err != nil {
			return slot.Snapshot{}, ErrSlotNotFound
		}

		if snap.Status == slot.StatusAvailable {
			return snap, nil
		}

		if !snap.Reservation.OwnedBy(identity.UserID) && !role.IsAdmin() {
			return slot.Snapshot{}, ErrNotOwner
		}

		released, err := b.registry.CompareAndTransition(
			slotNumber, snap.Status, snap.Version, slot.StatusAvailable, nil,
		)
		if err != nil {
			if errors.Is(err, registry.ErrConflict) {
				continue
			}
			return slot.Snapshot{}, err
		}

		b.logger.Info("slot released",
			slog.String("slot", released.Number),
			slog.String("by_user", identity.UserID.String()),
			slog.Bool("admin", role.IsAdmin()),
		)
		return released, nil
	}

	return slot.Snapshot{}, errs.Mark(registry.ErrConflict, ErrSlotTaken)
}

// ExpireOverdue force-releases reservations whose window elapsed without a
// confirmed arrival. Parked slots are exempt: the vehicle is physically there,
// presence overrides the clock.
func (b *bookingCommandsImpl) ExpireOverdue(ctx context.Context, now time.Time) int {
	released := 0
	for _, snap := range b.registry.List() {
		if snap.Status != slot.StatusOccupied {
			continue
		}
		if !snap.Reservation.HasExpired(now) {
			continue
		}

		owner := snap.Reservation.Owner().UserID
		// The version pin makes sure only the reservation this pass judged
		// overdue is released, never a successor booked in the meantime.
		_, err := b.registry.CompareAndTransition(
			snap.Number, slot.StatusOccupied, snap.Version, slot.StatusAvailable, nil,
		)
		if err != nil {
			// Lost the race to a release or an arrival; nothing to do.
			continue
		}

		released++
		b.logger.Info("reservation expired, slot released",
			slog.String("slot", snap.Number),
			slog.String("user_id", owner.String()),
			slog.Time("booking_end", snap.Reservation.Window().End()),
		)
	}
	return released
}

func (b *bookingCommandsImpl) lockUser(key string) func() {
	v, _ := b.userLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
