// Package postgres is the PostgreSQL backend of the record index.
package postgres

import (
	"context"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/storage/relationaldb"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Dialect is the PostgreSQL flavour of the index schema.
var Dialect = relationaldb.Dialect{
	DriverName: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq BIGINT PRIMARY KEY,
			type VARCHAR(64) NOT NULL,
			vault_id BIGINT NOT NULL,
			time_ns BIGINT NOT NULL,
			fields JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS events_vault_idx ON events (vault_id, seq)`,
		`CREATE INDEX IF NOT EXISTS events_type_idx ON events (type, seq)`,
	},
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// New opens the index on PostgreSQL.
func New(ctx context.Context, config *relationaldb.Config) (*relationaldb.EventStore, error) {
	return relationaldb.Open(ctx, config, Dialect)
}
