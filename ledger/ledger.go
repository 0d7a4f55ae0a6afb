// Package ledger keeps an append-only record of pipeline stage runs in
// a local SQLite database. Recording is asynchronous so a slow or
// broken ledger never backpressures the pipeline itself.
package ledger

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the stage_runs table. Applied by Store.Init.
const Schema = `
CREATE TABLE IF NOT EXISTS stage_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stage TEXT NOT NULL,
	unit TEXT NOT NULL,
	rows INTEGER NOT NULL,
	duration_us INTEGER NOT NULL,
	error TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stage_runs_ts ON stage_runs(timestamp);
CREATE INDEX IF NOT EXISTS idx_stage_runs_stage ON stage_runs(stage);
`

// Entry is one stage invocation, successful or not.
type Entry struct {
	Stage     string
	Unit      string
	Rows      int
	Duration  time.Duration
	Err       string
	Timestamp int64
}

// Open opens the ledger database at path with the usual pragmas,
// creating parent directories as needed.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ledger: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger: %s: %w", p, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	return db, nil
}

// Store persists stage run entries asynchronously.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewStore creates a ledger store backed by the given database.
func NewStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// Init creates the stage_runs table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Record queues an entry for async persistence. Non-blocking; drops if
// the buffer is full. Safe to call concurrently with Close: entries
// arriving after shutdown has begun are dropped instead of panicking
// on the closed channel.
func (s *Store) Record(e *Entry) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		// buffer full; drop rather than stall a stage
	}
}

// Close drains the buffer and stops the flush goroutine.
func (s *Store) Close() error {
	s.once.Do(func() {
		// Take the write lock so no Record send is in flight when the
		// channel closes.
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ch)
		<-s.done
	})
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("ledger: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO stage_runs (stage, unit, rows, duration_us, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("ledger: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.Stage, e.Unit, e.Rows, e.Duration.Microseconds(), e.Err, e.Timestamp); err != nil {
			slog.Error("ledger: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("ledger: commit", "error", err)
	}
}
