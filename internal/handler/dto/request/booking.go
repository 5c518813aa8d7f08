package request

import "time"

type BookSlotRequest struct {
	BookingStart time.Time `json:"bookingStart" binding:"required"`
	BookingEnd   time.Time `json:"bookingEnd" binding:"required"`
}
