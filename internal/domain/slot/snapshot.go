package slot

import "smart-parking-engine/internal/domain/reservation"

// Snapshot is an immutable view of one slot taken under its guard. Version
// increases by exactly one per committed transition, so observers can discard
// anything older than what they have already seen for that slot.
type Snapshot struct {
	Number      string
	Status      Status
	Reservation *reservation.Reservation
	Version     uint64
}

// ConsistentState checks the registry invariant: a reservation is present iff
// the slot is occupied or parked.
func (s Snapshot) ConsistentState() bool {
	if s.Status == StatusAvailable {
		return s.Reservation == nil
	}
	return s.Reservation != nil
}
