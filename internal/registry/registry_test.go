//go:build unit

package registry_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"smart-parking-engine/internal/domain/reservation"
	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/registry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReservation(t *testing.T, userID uuid.UUID) *reservation.Reservation {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := reservation.ReconstructWindow(now.Add(time.Hour), now.Add(2*time.Hour))
	res, err := reservation.NewReservation(reservation.Identity{
		UserID:        userID,
		Username:      "bob",
		VehicleNumber: "MH-12-CD-5678",
		Mobile:        "9123456780",
	}, w, now)
	require.NoError(t, err)
	return res
}

// recordingListener captures delivery order for one slot.
type recordingListener struct {
	mu    sync.Mutex
	snaps []slot.Snapshot
}

func (l *recordingListener) OnTransition(snap slot.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snaps = append(l.snaps, snap)
}

func (l *recordingListener) recorded() []slot.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]slot.Snapshot, len(l.snaps))
	copy(out, l.snaps)
	return out
}

func TestCompareAndTransition(t *testing.T) {
	t.Run("booking a free slot succeeds and bumps the version", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		res := newReservation(t, uuid.New())

		snap, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
		require.NoError(t, err)

		assert.Equal(t, slot.StatusOccupied, snap.Status)
		assert.Equal(t, uint64(1), snap.Version)
		assert.NotNil(t, snap.Reservation)
	})

	t.Run("stale status expectation fails with conflict", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		res := newReservation(t, uuid.New())
		_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
		require.NoError(t, err)

		_, err = reg.CompareAndTransition("1", slot.StatusAvailable, 1, slot.StatusOccupied, newReservation(t, uuid.New()))
		assert.ErrorIs(t, err, registry.ErrConflict)
	})

	t.Run("stale version fails even when the status matches", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		alice := uuid.New()
		bob := uuid.New()

		// Alice books, releases, and Bob books: the slot is occupied again,
		// but by a different reservation at a higher version.
		_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, newReservation(t, alice))
		require.NoError(t, err)
		_, err = reg.CompareAndTransition("1", slot.StatusOccupied, 1, slot.StatusAvailable, nil)
		require.NoError(t, err)
		_, err = reg.CompareAndTransition("1", slot.StatusAvailable, 2, slot.StatusOccupied, newReservation(t, bob))
		require.NoError(t, err)

		// A release pinned to Alice's read must not vacate Bob.
		_, err = reg.CompareAndTransition("1", slot.StatusOccupied, 1, slot.StatusAvailable, nil)
		assert.ErrorIs(t, err, registry.ErrConflict)

		snap, err := reg.Get("1")
		require.NoError(t, err)
		assert.Equal(t, slot.StatusOccupied, snap.Status)
		require.NotNil(t, snap.Reservation)
		assert.True(t, snap.Reservation.OwnedBy(bob))
	})

	t.Run("unknown slot", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		_, err := reg.CompareAndTransition("99", slot.StatusAvailable, 0, slot.StatusOccupied, newReservation(t, uuid.New()))
		assert.ErrorIs(t, err, registry.ErrSlotNotFound)
	})

	t.Run("illegal lifecycle edge", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusParked, nil)
		assert.ErrorIs(t, err, registry.ErrInvalidTransition)
	})

	t.Run("reservation shape must match the target status", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())

		_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, nil)
		assert.ErrorIs(t, err, registry.ErrReservationShape)

		res := newReservation(t, uuid.New())
		_, err = reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
		require.NoError(t, err)

		_, err = reg.CompareAndTransition("1", slot.StatusOccupied, 1, slot.StatusAvailable, res)
		assert.ErrorIs(t, err, registry.ErrReservationShape)
	})

	t.Run("parking keeps the reservation, releasing clears it", func(t *testing.T) {
		reg := registry.New([]string{"1"}, discardLogger())
		userID := uuid.New()
		res := newReservation(t, userID)

		_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
		require.NoError(t, err)

		parked, err := reg.CompareAndTransition("1", slot.StatusOccupied, 1, slot.StatusParked, nil)
		require.NoError(t, err)
		require.NotNil(t, parked.Reservation)
		assert.True(t, parked.Reservation.OwnedBy(userID))

		released, err := reg.CompareAndTransition("1", slot.StatusParked, 2, slot.StatusAvailable, nil)
		require.NoError(t, err)
		assert.Nil(t, released.Reservation)

		_, held := reg.ActiveSlotOf(userID)
		assert.False(t, held)
	})
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	reg := registry.New([]string{"1"}, discardLogger())

	const contenders = 32
	var wg sync.WaitGroup
	var successes int32
	var successMu sync.Mutex

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := newReservation(t, uuid.New())
			_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
			if err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			} else {
				assert.ErrorIs(t, err, registry.ErrConflict)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)

	snap, err := reg.Get("1")
	require.NoError(t, err)
	assert.Equal(t, slot.StatusOccupied, snap.Status)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestListOrder(t *testing.T) {
	reg := registry.New([]string{"10", "2", "1", "B", "A"}, discardLogger())

	var numbers []string
	for _, snap := range reg.List() {
		numbers = append(numbers, snap.Number)
	}

	if diff := cmp.Diff([]string{"1", "2", "10", "A", "B"}, numbers); diff != "" {
		t.Errorf("slot order mismatch (-want +got):\n%s", diff)
	}
}

func TestListenerSeesVersionsInOrder(t *testing.T) {
	listener := &recordingListener{}
	reg := registry.New([]string{"1"}, discardLogger(), listener)

	res := newReservation(t, uuid.New())
	_, err := reg.CompareAndTransition("1", slot.StatusAvailable, 0, slot.StatusOccupied, res)
	require.NoError(t, err)
	_, err = reg.CompareAndTransition("1", slot.StatusOccupied, 1, slot.StatusParked, nil)
	require.NoError(t, err)
	_, err = reg.CompareAndTransition("1", slot.StatusParked, 2, slot.StatusAvailable, nil)
	require.NoError(t, err)

	snaps := listener.recorded()
	require.Len(t, snaps, 3)
	for i, snap := range snaps {
		assert.Equal(t, uint64(i+1), snap.Version)
	}
	assert.Equal(t, slot.StatusOccupied, snaps[0].Status)
	assert.Equal(t, slot.StatusParked, snaps[1].Status)
	assert.Equal(t, slot.StatusAvailable, snaps[2].Status)
}

func TestPerSlotVersionOrderUnderContention(t *testing.T) {
	listener := &recordingListener{}
	reg := registry.New([]string{"1", "2"}, discardLogger(), listener)

	// Hammer both slots with full lifecycles from several goroutines; per-slot
	// versions in the listener's stream must still be strictly increasing.
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		for _, number := range []string{"1", "2"} {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					snap, err := reg.Get(n)
					if err != nil || snap.Status != slot.StatusAvailable {
						continue
					}
					res := newReservation(t, uuid.New())
					booked, err := reg.CompareAndTransition(n, slot.StatusAvailable, snap.Version, slot.StatusOccupied, res)
					if err != nil {
						continue
					}
					_, _ = reg.CompareAndTransition(n, slot.StatusOccupied, booked.Version, slot.StatusAvailable, nil)
				}
			}(number)
		}
	}
	wg.Wait()

	lastVersion := map[string]uint64{}
	for _, snap := range listener.recorded() {
		assert.Greater(t, snap.Version, lastVersion[snap.Number],
			"slot %s version went backwards", snap.Number)
		lastVersion[snap.Number] = snap.Version
	}
}

func TestActiveSlotOf(t *testing.T) {
	reg := registry.New([]string{"1", "2"}, discardLogger())
	userID := uuid.New()

	_, held := reg.ActiveSlotOf(userID)
	assert.False(t, held)

	_, err := reg.CompareAndTransition("2", slot.StatusAvailable, 0, slot.StatusOccupied, newReservation(t, userID))
	require.NoError(t, err)

	number, held := reg.ActiveSlotOf(userID)
	assert.True(t, held)
	assert.Equal(t, "2", number)
}
