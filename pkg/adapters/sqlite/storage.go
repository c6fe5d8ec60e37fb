// Package sqlite stores records in a single SQLite table using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/aretw0/markwrite/pkg/core"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config holds the configuration for the SQLite storage.
type Config struct {
	// Path of the database file, or MemoryPath.
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Storage implements core.Storage on a kv table.
type Storage struct {
	config Config

	mu     sync.RWMutex
	db     *sql.DB
	writes int
}

// New creates a storage. The database is opened by Initialize.
func New(config Config) *Storage {
	return &Storage{config: config}
}

func (s *Storage) dsn() string {
	if s.config.Path == MemoryPath {
		return MemoryPath
	}
	return filepath.Clean(s.config.Path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// Initialize opens the database and applies the schema migrations.
func (s *Storage) Initialize(ctx context.Context) error {
	if strings.TrimSpace(s.config.Path) == "" {
		return fmt.Errorf("storage path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: a ":memory:" database exists per connection, and the
	// store has a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	if s.config.Logger != nil {
		s.config.Logger.Debug("sqlite storage ready", "path", s.config.Path)
	}
	return nil
}

// Close releases the database.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("sqlite storage is not initialized")
	}
	return s.db, nil
}

// Read returns the value stored under key.
func (s *Storage) Read(ctx context.Context, key string) ([]byte, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// Write upserts the value of key in one statement, so the record is
// replaced whole or not at all.
func (s *Storage) Write(ctx context.Context, key string, data []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	db, err := s.handle()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	db, err := s.handle()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (s *Storage) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	db, err := s.handle()
	if err != nil {
		return time.Time{}, err
	}

	var ms int64
	err = db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, core.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", key, err)
	}
	return time.UnixMilli(ms), nil
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	ReadOnly bool   `json:"read_only"`
	Records  int    `json:"records"`
	Writes   int    `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	db := s.db
	st := StorageState{
		Path:     s.config.Path,
		Open:     db != nil,
		ReadOnly: s.config.ReadOnly,
		Writes:   s.writes,
	}
	s.mu.RUnlock()

	if db != nil {
		_ = db.QueryRow(`SELECT COUNT(1) FROM kv`).Scan(&st.Records)
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "sqlite-storage"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
