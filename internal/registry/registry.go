// Package registry owns the authoritative in-memory state of every slot in
// the lot. Each slot record is guarded independently so traffic on different
// slots never serializes; CompareAndTransition is the only mutation path.
package registry

import (
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"smart-parking-engine/internal/domain/reservation"
	"smart-parking-engine/internal/domain/slot"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	// ErrConflict means the slot's status or version differed from the caller's
	// expectation at the moment of application; the caller's view is stale.
	ErrConflict          = errors.New("slot state conflict")
	ErrInvalidTransition = errors.New("invalid slot transition")
	ErrReservationShape  = errors.New("reservation does not match target status")
)

// TransitionListener receives every committed transition. It is invoked under
// the slot's guard so per-slot delivery order matches version order, and it
// must therefore never block.
type TransitionListener interface {
	OnTransition(snap slot.Snapshot)
}

type record struct {
	mu      sync.Mutex
	status  slot.Status
	res     *reservation.Reservation
	version uint64
}

func (r *record) snapshot(number string) slot.Snapshot {
	return slot.Snapshot{
		Number:      number,
		Status:      r.status,
		Reservation: r.res,
		Version:     r.version,
	}
}

type Registry struct {
	slots map[string]*record // shape fixed at construction
	order []string

	// byUser spans slots, so it has its own guard. Lock order is always
	// record.mu → userMu; nothing acquires a record while holding userMu.
	userMu sync.RWMutex
	byUser map[uuid.UUID]string

	listeners []TransitionListener
	logger    *slog.Logger
}

func New(slotNumbers []string, logger *slog.Logger, listeners ...TransitionListener) *Registry {
	slots := make(map[string]*record, len(slotNumbers))
	order := make([]string, 0, len(slotNumbers))
	for _, n := range slotNumbers {
		if _, dup := slots[n]; dup || n == "" {
			continue
		}
		slots[n] = &record{status: slot.StatusAvailable}
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool { return slotNumberLess(order[i], order[j]) })

	return &Registry{
		slots:     slots,
		order:     order,
		byUser:    make(map[uuid.UUID]string),
		listeners: listeners,
		logger:    logger,
	}
}

// Get returns a consistent snapshot of one slot.
func (r *Registry) Get(number string) (slot.Snapshot, error) {
	rec, ok := r.slots[number]
	if !ok {
		return slot.Snapshot{}, ErrSlotNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.snapshot(number), nil
}

// List returns per-slot-consistent snapshots in stable slot-number order.
func (r *Registry) List() []slot.Snapshot {
	out := make([]slot.Snapshot, 0, len(r.order))
	for _, n := range r.order {
		rec := r.slots[n]
		rec.mu.Lock()
		out = append(out, rec.snapshot(n))
		rec.mu.Unlock()
	}
	return out
}

// ActiveSlotOf reports which slot, if any, currently holds a reservation owned
// by userID.
func (r *Registry) ActiveSlotOf(userID uuid.UUID) (string, bool) {
	r.userMu.RLock()
	defer r.userMu.RUnlock()
	n, ok := r.byUser[userID]
	return n, ok
}

// CompareAndTransition atomically moves a slot from expected to next, failing
// with ErrConflict if another caller won the race. expectedVersion pins the
// exact state the caller read: a status match alone is not enough, because the
// slot may have been released and rebooked in between, and acting on the new
// reservation with a check made against the old one vacates the wrong owner.
// res must be set when next is occupied and nil otherwise; a transition to
// parked keeps the reservation already on the record, and a transition to
// available clears it. The user index is updated under the same slot guard so
// the two never diverge.
func (r *Registry) CompareAndTransition(number string, expected slot.Status, expectedVersion uint64, next slot.Status, res *reservation.Reservation) (slot.Snapshot, error) {
	rec, ok := r.slots[number]
	if !ok {
		return slot.Snapshot{}, ErrSlotNotFound
	}
	if !slot.ValidTransition(expected, next) {
		return slot.Snapshot{}, ErrInvalidTransition
	}
	if (next == slot.StatusOccupied) != (res != nil) {
		return slot.Snapshot{}, ErrReservationShape
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.status != expected || rec.version != expectedVersion {
		return slot.Snapshot{}, ErrConflict
	}

	switch next {
	case slot.StatusOccupied:
		rec.res = res
		r.indexOwner(res.Owner().UserID, number)
	case slot.StatusAvailable:
		if rec.res != nil {
			r.unindexOwner(rec.res.Owner().UserID, number)
		}
		rec.res = nil
	case slot.StatusParked:
		// reservation carries over unchanged
	}
	rec.status = next
	rec.version++

	snap := rec.snapshot(number)
	// Listeners run under the slot guard so a slower transition can never
	// overtake an earlier one for the same slot. They must not block.
	for _, l := range r.listeners {
		l.OnTransition(snap)
	}
	return snap, nil
}

func (r *Registry) indexOwner(userID uuid.UUID, number string) {
	r.userMu.Lock()
	defer r.userMu.Unlock()
	if held, ok := r.byUser[userID]; ok && held != number {
		// The booking path checks the index before committing; reaching here
		// means that check was skipped. Log rather than silently corrupt.
		r.logger.Error("user index collision",
			slog.String("user_id", userID.String()),
			slog.String("held_slot", held),
			slog.String("new_slot", number),
		)
	}
	r.byUser[userID] = number
}

func (r *Registry) unindexOwner(userID uuid.UUID, number string) {
	r.userMu.Lock()
	defer r.userMu.Unlock()
	if r.byUser[userID] == number {
		delete(r.byUser, userID)
	}
}

// slotNumberLess orders numerically when both sides are plain numbers, so
// "10" sorts after "9" on the dashboard.
func slotNumberLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
