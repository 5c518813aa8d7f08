package reservation

import (
	"errors"
	"time"
)

var (
	ErrWindowInverted   = errors.New("booking end must be after booking start")
	ErrWindowInPast     = errors.New("booking start cannot be in the past")
	ErrZeroWindowBounds = errors.New("booking window bounds must be set")
)

// Window is the [start, end) interval a reservation claims a slot for.
type Window struct {
	start time.Time
	end   time.Time
}

// NewWindow validates the bounds against now. skew is the policy tolerance for
// clients whose clocks run slightly behind the engine's.
func NewWindow(start, end, now time.Time, skew time.Duration) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, ErrZeroWindowBounds
	}
	if !end.After(start) {
		return Window{}, ErrWindowInverted
	}
	if start.Before(now.Add(-skew)) {
		return Window{}, ErrWindowInPast
	}
	return Window{start: start, end: end}, nil
}

// ReconstructWindow bypasses validation; for rebuilding state in tests and
// snapshots, never for accepting client input.
func ReconstructWindow(start, end time.Time) Window {
	return Window{start: start, end: end}
}

func (w Window) Start() time.Time {
	return w.start
}

func (w Window) End() time.Time {
	return w.end
}

func (w Window) Duration() time.Duration {
	return w.end.Sub(w.start)
}

// ElapsedAt reports whether the window has fully passed at now.
func (w Window) ElapsedAt(now time.Time) bool {
	return now.After(w.end)
}

// AdmitsArrivalAt reports whether a physical arrival at now falls inside the
// window widened by grace on both sides.
func (w Window) AdmitsArrivalAt(now time.Time, grace time.Duration) bool {
	return !now.Before(w.start.Add(-grace)) && !now.After(w.end.Add(grace))
}
