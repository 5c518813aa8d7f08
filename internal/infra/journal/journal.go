// Package journal appends every committed slot transition to Postgres for
// audit and offline analysis. The registry remains the authority; the journal
// is write-only on the hot path and never read back by the engine.
package journal

import (
	"context"
	"log/slog"
	"time"

	"smart-parking-engine/internal/domain/slot"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertTransition = `
INSERT INTO slot_transitions (slot_number, status, version, user_id, booking_start, booking_end, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Journal implements registry.TransitionListener. Writes go through a bounded
// buffer drained by one goroutine: the listener is called under the slot
// guard, so it must never block — a full buffer drops the entry with a warn
// instead of delaying a booking.
type Journal struct {
	pool   *pgxpool.Pool
	buf    chan entry
	done   chan struct{}
	logger *slog.Logger
}

type entry struct {
	snap       slot.Snapshot
	occurredAt time.Time
}

func New(pool *pgxpool.Pool, bufferSize int, logger *slog.Logger) *Journal {
	if bufferSize < 1 {
		bufferSize = 256
	}
	j := &Journal{
		pool:   pool,
		buf:    make(chan entry, bufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go j.drain()
	return j
}

func (j *Journal) OnTransition(snap slot.Snapshot) {
	select {
	case j.buf <- entry{snap: snap, occurredAt: time.Now().UTC()}:
	default:
		j.logger.Warn("transition journal buffer full, dropping entry",
			slog.String("slot", snap.Number),
			slog.Uint64("version", snap.Version),
		)
	}
}

// Close stops accepting entries and flushes what is buffered.
func (j *Journal) Close() {
	close(j.buf)
	<-j.done
}

func (j *Journal) drain() {
	defer close(j.done)
	for e := range j.buf {
		j.write(e)
	}
}

func (j *Journal) write(e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var userID *string
	var bookingStart, bookingEnd *time.Time
	if res := e.snap.Reservation; res != nil {
		id := res.Owner().UserID.String()
		userID = &id
		start, end := res.Window().Start(), res.Window().End()
		bookingStart, bookingEnd = &start, &end
	}

	_, err := j.pool.Exec(ctx, insertTransition,
		e.snap.Number,
		e.snap.Status.String(),
		e.snap.Version,
		userID,
		bookingStart,
		bookingEnd,
		e.occurredAt,
	)
	if err != nil {
		j.logger.Error("failed to journal slot transition",
			slog.String("slot", e.snap.Number),
			slog.Uint64("version", e.snap.Version),
			slog.String("error", err.Error()),
		)
	}
}
