// Package store provides the in-memory conversation store and the
// fulfillment journal.
package store

import (
	"context"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
)

// Journal defines the interface for persisting fulfillment outcomes.
type Journal interface {
	// Record appends one terminal outcome for an order.
	Record(ctx context.Context, entry *domain.JournalEntry) error

	// Recent retrieves the latest entries, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
