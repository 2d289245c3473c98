package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed journal.
func NewSQLite(dbPath string) (Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	journal := &SQLiteJournal{db: db}
	if err := journal.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return journal, nil
}

func (s *SQLiteJournal) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS fulfillments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		nick TEXT NOT NULL,
		months INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fulfillments_created ON fulfillments(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record appends one terminal outcome for an order.
func (s *SQLiteJournal) Record(ctx context.Context, entry *domain.JournalEntry) error {
	query := `
	INSERT INTO fulfillments (order_id, nick, months, outcome, detail, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.OrderID, entry.Nick, entry.Months,
		string(entry.Outcome), entry.Detail, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert fulfillment: %w", err)
	}
	return nil
}

// Recent retrieves the latest entries, newest first.
func (s *SQLiteJournal) Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, order_id, nick, months, outcome, detail, created_at
	FROM fulfillments ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query fulfillments: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var outcome string
		var detail sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Nick, &e.Months, &outcome, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fulfillment row: %w", err)
		}
		e.Outcome = domain.Outcome(outcome)
		e.Detail = detail.String
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fulfillment rows: %w", err)
	}
	return entries, nil
}

// Ping verifies database connectivity.
func (s *SQLiteJournal) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
