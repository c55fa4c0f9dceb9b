package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements RecordStore on a Postgres table, for deployments
// that want collected records queryable with SQL instead of scattered over
// the filesystem. The semantics are identical to FileStore: one immutable
// record per (collection, id), presence of the row is the idempotency signal.
type PostgresStore struct {
	db *sql.DB
}

var pgMigration = []string{
	`CREATE TABLE record (
    collection VARCHAR(64) NOT NULL,
    id VARCHAR(255) NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
)`,
	`CREATE INDEX record_collection_idx ON record (collection)`,
}

// NewPostgresStore connects to Postgres with the given DSN and applies any
// pending migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Collection: "record", Err: err}
	}
	if err := db.Ping(); err != nil {
		return nil, &StorageError{Op: "open", Collection: "record", Err: err}
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(pgMigration); err != nil {
		return nil, &StorageError{Op: "migrate", Collection: "record", Err: err}
	}

	return s, nil
}

func (s *PostgresStore) migrate(wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	// find existing
	rows, err := s.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}
	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	for _, query := range missing {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
		if _, err := s.db.Exec(`INSERT INTO migration (query) VALUES ($1)`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return nil, fmt.Errorf("not enough migrations")
	}
	for i, want := range wanted {
		if i >= len(existing) {
			needed = append(needed, want)
			continue
		}
		if want != existing[i] {
			return nil, fmt.Errorf("migration %d does not match: %q != %q", i, want, existing[i])
		}
	}
	return needed, nil
}

// Exists reports whether a record row is present for the given id.
func (s *PostgresStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM record WHERE collection = $1 AND id = $2`, collection, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Op: "exists", Collection: collection, ID: id, Err: err}
	}
	return true, nil
}

// Get decodes the payload of the record with the given id into dst.
func (s *PostgresStore) Get(ctx context.Context, collection, id string, dst any) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM record WHERE collection = $1 AND id = $2`, collection, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: err}
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: ErrStorageCorrupt}
	}
	return nil
}

// Put upserts the record row. Row-level atomicity comes from Postgres itself.
func (s *PostgresStore) Put(ctx context.Context, collection, id string, record any) error {
	if collection == "" || id == "" {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: ErrInvalidInput}
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO record (collection, id, payload) VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET payload = EXCLUDED.payload`,
		collection, id, payload)
	if err != nil {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}
	return nil
}

// ListIDs returns the ids of all records in the collection.
func (s *PostgresStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM record WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, &StorageError{Op: "list", Collection: collection, Err: err}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StorageError{Op: "list", Collection: collection, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Collection: collection, Err: err}
	}
	return ids, nil
}

// FilterUncollected returns the ids that have no record yet, preserving the
// input order.
func (s *PostgresStore) FilterUncollected(ctx context.Context, collection string, ids []string) ([]string, error) {
	uncollected := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.Exists(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			uncollected = append(uncollected, id)
		}
	}
	return uncollected, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error { return s.db.Close() }
