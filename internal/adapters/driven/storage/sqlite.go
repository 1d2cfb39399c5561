package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/lightxml"
	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS light_requests (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS light_responses (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore is a persistent LightStorage backed by SQLite. Pop is a
// single delete-returning statement, so concurrent pops of the
// same key never both succeed.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and if necessary creates) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutLightRequest stores a light request under id. Overwrites are
// idempotent.
func (s *SQLiteStore) PutLightRequest(ctx context.Context, id string, request *domain.LightRequest) error {
	data, err := lightxml.MarshalRequest(request)
	if err != nil {
		return err
	}
	return s.put(ctx, "light_requests", id, data)
}

// GetLightRequest looks up a light request by id.
func (s *SQLiteStore) GetLightRequest(ctx context.Context, id string) (*domain.LightRequest, error) {
	data, err := s.get(ctx, "light_requests", id)
	if err != nil || data == nil {
		return nil, err
	}
	return lightxml.UnmarshalRequest(data)
}

// PutLightResponse stores a light response under id.
func (s *SQLiteStore) PutLightResponse(ctx context.Context, id string, response *domain.LightResponse) error {
	data, err := lightxml.MarshalResponse(response)
	if err != nil {
		return err
	}
	return s.put(ctx, "light_responses", id, data)
}

// PopLightResponse atomically retrieves and deletes a light response.
// The single DELETE RETURNING statement takes the write lock up front,
// so concurrent pops of one key serialize instead of racing a deferred
// read transaction into SQLITE_BUSY.
func (s *SQLiteStore) PopLightResponse(ctx context.Context, id string) (*domain.LightResponse, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM light_responses WHERE id = ? RETURNING payload", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError(err, "pop light response %q", id)
	}
	return lightxml.UnmarshalResponse([]byte(payload))
}

func (s *SQLiteStore) put(ctx context.Context, table, id string, payload []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (id, payload) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET payload = excluded.payload",
		table)
	if _, err := s.db.ExecContext(ctx, query, id, string(payload)); err != nil {
		return domain.StorageError(err, "put %s %q", table, id)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, table, id string) ([]byte, error) {
	query := fmt.Sprintf("SELECT payload FROM %s WHERE id = ?", table)
	var payload string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError(err, "get %s %q", table, id)
	}
	return []byte(payload), nil
}
