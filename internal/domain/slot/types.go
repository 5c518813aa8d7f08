package slot

type Status string

const (
	// StatusAvailable means the slot carries no reservation and may be booked.
	StatusAvailable Status = "available"
	// StatusOccupied means the slot is reserved but the vehicle has not arrived.
	StatusOccupied Status = "occupied"
	// StatusParked means the reservation was confirmed by a physical presence signal.
	StatusParked Status = "parked"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusParked:
		return true
	default:
		return false
	}
}

// ValidTransition reports whether from→to is a legal lifecycle edge.
// parked→occupied is deliberately absent: presence cannot be un-detected
// without a release.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusAvailable:
		return to == StatusOccupied
	case StatusOccupied:
		return to == StatusParked || to == StatusAvailable
	case StatusParked:
		return to == StatusAvailable
	default:
		return false
	}
}
