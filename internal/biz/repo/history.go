package repo

import (
	"context"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
)

// HistoryCapacity is the per-user buffer bound
const HistoryCapacity = 20

// DefaultRecentLimit is used when Recent is called with a non-positive limit
const DefaultRecentLimit = 10

// HistoryRepo is the per-user message history store
type HistoryRepo interface {
	// Record appends a message to the user's buffer, evicting the oldest
	// entries so that at most HistoryCapacity remain
	Record(ctx context.Context, userID int64, rec domain.MessageRecord) error

	// Recent returns the last limit contents, oldest first.
	// Unknown users yield an empty slice.
	Recent(ctx context.Context, userID int64, limit int) ([]string, error)

	Close() error
}
