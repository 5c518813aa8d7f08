// Package hub fans committed slot transitions out to every subscribed
// observer. Delivery is at-least-once with per-slot ordering: events carry the
// registry's per-slot version, and the hub is notified under the slot guard,
// so a subscriber's channel never holds a newer state before an older one for
// the same slot.
package hub

import (
	"log/slog"
	"sync"

	"smart-parking-engine/internal/domain/slot"
)

type Kind string

const (
	// KindSnapshot is the full-lot state sent once, first, to a new subscriber.
	KindSnapshot Kind = "snapshot"
	KindSlotUpdate Kind = "slot_update"
	// KindGateOpen mirrors the actuation signal to dashboards.
	KindGateOpen Kind = "gate_open"
)

type Event struct {
	Kind       Kind
	Slots      []slot.Snapshot // KindSnapshot
	Slot       slot.Snapshot   // KindSlotUpdate
	SlotNumber string          // KindGateOpen
}

type Subscriber struct {
	events chan Event
	once   sync.Once
}

// Events yields the subscriber's stream. The channel is closed when the hub
// drops the subscriber (overflow) or Unsubscribe is called.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.events) })
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	logger *slog.Logger
}

func New(buffer int, logger *slog.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers an observer, then takes and queues the full snapshot.
// Registration happens first so no transition can commit unobserved in the
// gap: anything published before the snapshot lands in the channel carries an
// older-or-equal per-slot version and the snapshot supersedes it (observers
// discard versions at or below what they have already applied per slot).
// snapshot must not be called under hub locks, since it takes slot guards and
// OnTransition runs under them.
func (h *Hub) Subscribe(snapshot func() []slot.Snapshot) *Subscriber {
	sub := &Subscriber{events: make(chan Event, h.buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	var slots []slot.Snapshot
	if snapshot != nil {
		slots = snapshot()
	}
	select {
	case sub.events <- Event{Kind: KindSnapshot, Slots: slots}:
	default:
		// The buffer filled with updates before the snapshot could be queued;
		// same treatment as any overflow.
		h.logger.Warn("observer buffer full before snapshot, disconnecting")
		h.Unsubscribe(sub)
		return sub
	}

	h.logger.Debug("observer subscribed", slog.Int("total", n))
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		sub.close()
		h.logger.Debug("observer unsubscribed", slog.Int("total", n))
	}
}

// OnTransition implements registry.TransitionListener. It must never block:
// a slow observer is disconnected, not waited on, so mutations never feel
// subscriber backpressure. A dropped observer resubscribes and re-snapshots.
func (h *Hub) OnTransition(snap slot.Snapshot) {
	h.publish(Event{Kind: KindSlotUpdate, Slot: snap})
}

// AnnounceGateOpen broadcasts the actuation signal alongside state updates.
func (h *Hub) AnnounceGateOpen(slotNumber string) {
	h.publish(Event{Kind: KindGateOpen, SlotNumber: slotNumber})
}

func (h *Hub) publish(ev Event) {
	var overflowed []*Subscriber

	h.mu.RLock()
	for sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range overflowed {
		h.logger.Warn("observer buffer full, disconnecting")
		h.Unsubscribe(sub)
	}
}
