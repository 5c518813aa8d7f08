package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMissingOwner = errors.New("reservation owner is required")

// Identity is the verified user identity attached by the external auth layer.
type Identity struct {
	UserID        uuid.UUID
	Username      string
	VehicleNumber string
	Mobile        string
}

// Reservation is a time-bounded claim on one slot by one user. It is owned by
// exactly one slot record at a time; the registry never shares it.
type Reservation struct {
	owner     Identity
	window    Window
	createdAt time.Time
}

func NewReservation(owner Identity, window Window, now time.Time) (*Reservation, error) {
	if owner.UserID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	return &Reservation{
		owner:     owner,
		window:    window,
		createdAt: now,
	}, nil
}

func (r *Reservation) Owner() Identity      { return r.owner }
func (r *Reservation) Window() Window       { return r.window }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

func (r *Reservation) OwnedBy(userID uuid.UUID) bool {
	return r.owner.UserID == userID
}

// HasExpired reports whether the booking window elapsed. Whether that leads to
// a release is the sweep's call: physical presence exempts a slot from expiry.
func (r *Reservation) HasExpired(now time.Time) bool {
	return r.window.ElapsedAt(now)
}
