package response

import (
	"time"

	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/usecase/queries"
)

type BookedByResponse struct {
	Username      string `json:"username"`
	VehicleNumber string `json:"vehicleNumber"`
	Mobile        string `json:"mobile"`
}

type SlotResponse struct {
	SlotNumber   string            `json:"slotNumber"`
	Status       string            `json:"status"`
	BookedBy     *BookedByResponse `json:"bookedBy,omitempty"`
	BookingStart *time.Time        `json:"bookingStart,omitempty"`
	BookingEnd   *time.Time        `json:"bookingEnd,omitempty"`
	Version      uint64            `json:"version"`
}

type LotSummaryResponse struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Parked    int `json:"parked"`
}

type SlotListResponse struct {
	Slots   []*SlotResponse     `json:"slots"`
	Summary *LotSummaryResponse `json:"summary"`
}

func FromSnapshot(snap slot.Snapshot) *SlotResponse {
	resp := &SlotResponse{
		SlotNumber: snap.Number,
		Status:     snap.Status.String(),
		Version:    snap.Version,
	}
	if res := snap.Reservation; res != nil {
		owner := res.Owner()
		resp.BookedBy = &BookedByResponse{
			Username:      owner.Username,
			VehicleNumber: owner.VehicleNumber,
			Mobile:        owner.Mobile,
		}
		start, end := res.Window().Start(), res.Window().End()
		resp.BookingStart = &start
		resp.BookingEnd = &end
	}
	return resp
}

func FromSnapshots(snaps []slot.Snapshot) []*SlotResponse {
	out := make([]*SlotResponse, len(snaps))
	for i, s := range snaps {
		out[i] = FromSnapshot(s)
	}
	return out
}

func FromLotSummary(s queries.LotSummary) *LotSummaryResponse {
	return &LotSummaryResponse{
		Total:     s.Total,
		Available: s.Available,
		Occupied:  s.Occupied,
		Parked:    s.Parked,
	}
}
