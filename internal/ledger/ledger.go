// Package ledger is the notification idempotency store: one delivery record
// per game, written once after the notification for that game went out.
//
// Every backend implements Record as a single insert-if-absent so that two
// overlapping runs can never both create a record for the same game. The
// ErrAlreadyRecorded result of Record is the authoritative "already
// notified" signal; Has is only a fast path.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var (
	// ErrAlreadyRecorded is returned by Record when the game already has a
	// delivery record.
	ErrAlreadyRecorded = errors.New("delivery already recorded")
	// ErrNotFound is returned by Get when the game has no delivery record.
	ErrNotFound = errors.New("delivery record not found")
)

// DeliveryRecord marks that a notification was sent for a game.
type DeliveryRecord struct {
	GameID     string    `json:"game_id"`
	NotifiedAt time.Time `json:"timestamp"`
}

// Ledger is implemented by every storage backend.
type Ledger interface {
	// Has reports whether a delivery record exists for gameID.
	Has(ctx context.Context, gameID string) (bool, error)
	// Record creates the delivery record for gameID if none exists, and
	// returns ErrAlreadyRecorded otherwise.
	Record(ctx context.Context, gameID string, at time.Time) error
	// Get returns the delivery record for gameID or ErrNotFound.
	Get(ctx context.Context, gameID string) (DeliveryRecord, error)
	Close() error
}

// Key formats a numeric game id as a ledger key.
func Key(gameID int) string {
	return strconv.Itoa(gameID)
}
