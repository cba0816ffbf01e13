package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists key-value pairs across process restarts.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				// Exponential backoff: 10ms, 20ms, 40ms, 80ms
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	storage := &SQLiteStorage{db: db, path: dbPath}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *SQLiteStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		_, err := s.db.Exec(`
			INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, key, value)
		return err
	}, 4)
}

func (s *SQLiteStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		_, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key)
		return err
	}, 4)
}

// Close releases the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
