package request

import "time"

// PresenceRequest is the HTTP ingest shape for sensor relays that cannot reach
// the queue. Detected is a pointer so a missing field is rejected instead of
// being read as a departure.
type PresenceRequest struct {
	SlotNumber string     `json:"slotNumber" binding:"required"`
	Detected   *bool      `json:"detected" binding:"required"`
	ObservedAt *time.Time `json:"observedAt"`
	DeviceID   string     `json:"deviceId"`
}
