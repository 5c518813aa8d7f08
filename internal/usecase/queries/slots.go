package queries

import (
	"context"
	"errors"

	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/registry"
)

var ErrSlotNotFound = errors.New("slot not found")

// LotSummary is the aggregate the dashboard header renders.
type LotSummary struct {
	Total     int
	Available int
	Occupied  int
	Parked    int
}

type SlotQueries interface {
	ListSlots(ctx context.Context) []slot.Snapshot
	GetSlot(ctx context.Context, number string) (slot.Snapshot, error)
	Summary(ctx context.Context) LotSummary
}

type slotQueriesImpl struct {
	registry *registry.Registry
}

func NewSlotQueries(reg *registry.Registry) SlotQueries {
	return &slotQueriesImpl{registry: reg}
}

func (q *slotQueriesImpl) ListSlots(_ context.Context) []slot.Snapshot {
	return q.registry.List()
}

func (q *slotQueriesImpl) GetSlot(_ context.Context, number string) (slot.Snapshot, error) {
	snap, err := q.registry.Get(number)
	if err != nil {
		return slot.Snapshot{}, ErrSlotNotFound
	}
	return snap, nil
}

func (q *slotQueriesImpl) Summary(_ context.Context) LotSummary {
	s := LotSummary{}
	for _, snap := range q.registry.List() {
		s.Total++
		switch snap.Status {
		case slot.StatusAvailable:
			s.Available++
		case slot.StatusOccupied:
			s.Occupied++
		case slot.StatusParked:
			s.Parked++
		}
	}
	return s
}
