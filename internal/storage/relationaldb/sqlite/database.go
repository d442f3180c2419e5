// Package sqlite is the embedded SQLite backend of the record index.
package sqlite

import (
	"context"

	"github.com/LeJamon/goFracVault/internal/storage/relationaldb"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Dialect is the SQLite flavour of the index schema.
var Dialect = relationaldb.Dialect{
	DriverName: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			vault_id INTEGER NOT NULL,
			time_ns INTEGER NOT NULL,
			fields TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS events_vault_idx ON events (vault_id, seq)`,
		`CREATE INDEX IF NOT EXISTS events_type_idx ON events (type, seq)`,
	},
	Placeholder: func(int) string { return "?" },
}

// New opens the index on a SQLite file.
func New(ctx context.Context, config *relationaldb.Config) (*relationaldb.EventStore, error) {
	return relationaldb.Open(ctx, config, Dialect)
}
