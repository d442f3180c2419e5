package relationaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
)

// EventStore implements EventRepository over database/sql.
type EventStore struct {
	db      *sql.DB
	config  *Config
	dialect Dialect
}

var _ EventRepository = (*EventStore)(nil)

// Open connects, configures the pool and creates the schema.
func Open(ctx context.Context, config *Config, dialect Dialect) (*EventStore, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}
	connStr, err := config.BuildConnectionString()
	if err != nil {
		return nil, NewConfigurationError("open", "failed to build connection string", err)
	}

	db, err := sql.Open(dialect.DriverName, connStr)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &EventStore{db: db, config: config, dialect: dialect}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}
	return s, nil
}

func (s *EventStore) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	for _, q := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Ping tests the database connection
func (s *EventStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// Close closes the database connection
func (s *EventStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

func (s *EventStore) Append(ctx context.Context, evts []events.Event) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	if len(evts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("append", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	p := s.dialect.Placeholder
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO events (seq, type, vault_id, time_ns, fields) VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (seq) DO NOTHING`, p(1), p(2), p(3), p(4), p(5)))
	if err != nil {
		return NewQueryError("append", "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, e := range evts {
		fields, err := json.Marshal(e.Fields)
		if err != nil {
			return NewQueryError("append", "failed to encode fields", err)
		}
		if _, err := stmt.ExecContext(ctx, int64(e.Seq), string(e.Type), int64(e.VaultID), e.Time.UnixNano(), string(fields)); err != nil {
			return NewTransactionError("append", fmt.Sprintf("failed to insert record %d", e.Seq), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionError("append", "failed to commit transaction", err)
	}
	return nil
}

func (s *EventStore) Query(ctx context.Context, f events.Filter) ([]events.Event, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return s.dialect.Placeholder(len(args))
	}
	conds = append(conds, "seq > "+arg(int64(f.AfterSeq)))
	if f.VaultID != nil {
		conds = append(conds, "vault_id = "+arg(int64(*f.VaultID)))
	}
	if f.Type != "" {
		conds = append(conds, "type = "+arg(string(f.Type)))
	}
	q := "SELECT seq, type, vault_id, time_ns, fields FROM events WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY seq"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, NewQueryError("query", "failed to query records", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			seq, vaultID, timeNS int64
			typ                  string
			fields               []byte
		)
		if err := rows.Scan(&seq, &typ, &vaultID, &timeNS, &fields); err != nil {
			return nil, NewQueryError("query", "failed to scan record", err)
		}
		e := events.Event{
			Seq:     uint64(seq),
			Type:    events.Type(typ),
			VaultID: uint64(vaultID),
			Time:    time.Unix(0, timeNS).UTC(),
		}
		if err := json.Unmarshal(fields, &e.Fields); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidDataFormat, seq, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("query", "failed to read records", err)
	}
	return out, nil
}

func (s *EventStore) LastSeq(ctx context.Context) (uint64, error) {
	if s.db == nil {
		return 0, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM events").Scan(&seq); err != nil {
		return 0, NewQueryError("last_seq", "failed to query last sequence", err)
	}
	return uint64(seq.Int64), nil
}
