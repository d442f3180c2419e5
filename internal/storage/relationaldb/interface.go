// Package relationaldb indexes committed records in a SQL database so they
// can be queried after the in-memory journal has rotated them out.
package relationaldb

import (
	"context"

	"github.com/LeJamon/goFracVault/internal/core/events"
)

// EventRepository stores and queries committed records.
type EventRepository interface {
	// Append stores records. A record whose sequence is already stored is
	// skipped, so replaying a batch is harmless.
	Append(ctx context.Context, evts []events.Event) error

	// Query returns matching records in sequence order.
	Query(ctx context.Context, f events.Filter) ([]events.Event, error)

	// LastSeq returns the highest stored sequence, or 0.
	LastSeq(ctx context.Context) (uint64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Dialect carries what differs between SQL backends.
type Dialect struct {
	// DriverName is the database/sql driver to open
	DriverName string

	// Schema statements, run in order on open
	Schema []string

	// Placeholder returns the n-th (1-based) bind parameter
	Placeholder func(n int) string
}
