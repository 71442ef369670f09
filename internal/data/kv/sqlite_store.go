package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"repolens/internal/shared/observability"

	_ "modernc.org/sqlite"
)

const (
	driverName       = "sqlite"
	maxAttempts      = 5
	defaultNamespace = "default"
)

// SQLiteStore is a namespaced string key/value table in a single sqlite file.
type SQLiteStore struct {
	path      string
	namespace string
	db        *sql.DB
	mu        sync.Mutex
}

type SQLiteOptions struct {
	Namespace   string
	BusyTimeout time.Duration
}

func OpenSQLite(path string, opts SQLiteOptions) (*SQLiteStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busy.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	ns := strings.TrimSpace(opts.Namespace)
	if ns == "" {
		ns = defaultNamespace
	}
	return &SQLiteStore{path: cleanPath, namespace: ns, db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observeOp("sqlite_get", time.Now())

	var value string
	err := s.withRetry("get "+key, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`,
			s.namespace, key,
		).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observeOp("sqlite_set", time.Now())

	return s.withRetry("set "+key, func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO kv_entries (namespace, key, value, updated_at_utc) VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET
  value=excluded.value,
  updated_at_utc=excluded.updated_at_utc
`, s.namespace, key, value, time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observeOp("sqlite_remove", time.Now())

	return s.withRetry("remove "+key, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE namespace = ? AND key = ?`, s.namespace, key)
		return err
	})
}

// Ping is used by the health endpoint.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *SQLiteStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *SQLiteStore) Namespace() string {
	if s == nil {
		return ""
	}
	return s.namespace
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func observeOp(op string, start time.Time) {
	observability.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
