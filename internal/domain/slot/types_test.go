//go:build unit

package slot_test

import (
	"testing"

	"smart-parking-engine/internal/domain/slot"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		name string
		from slot.Status
		to   slot.Status
		ok   bool
	}{
		{name: "book a free slot", from: slot.StatusAvailable, to: slot.StatusOccupied, ok: true},
		{name: "arrival confirms booking", from: slot.StatusOccupied, to: slot.StatusParked, ok: true},
		{name: "release before arrival", from: slot.StatusOccupied, to: slot.StatusAvailable, ok: true},
		{name: "release after parking", from: slot.StatusParked, to: slot.StatusAvailable, ok: true},
		{name: "cannot park on a free slot", from: slot.StatusAvailable, to: slot.StatusParked, ok: false},
		{name: "presence cannot be undone", from: slot.StatusParked, to: slot.StatusOccupied, ok: false},
		{name: "no self transition", from: slot.StatusOccupied, to: slot.StatusOccupied, ok: false},
		{name: "unknown source status", from: slot.Status("unknown"), to: slot.StatusAvailable, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, slot.ValidTransition(tc.from, tc.to))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, slot.StatusAvailable.IsValid())
	assert.True(t, slot.StatusOccupied.IsValid())
	assert.True(t, slot.StatusParked.IsValid())
	assert.False(t, slot.Status("reserved").IsValid())
	assert.False(t, slot.Status("").IsValid())
}
