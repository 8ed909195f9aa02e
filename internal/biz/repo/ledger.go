package repo

import (
	"context"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
)

// LedgerRepo persists the moderation audit trail
type LedgerRepo interface {
	Save(ctx context.Context, rec *domain.ModerationRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ModerationRecord, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error)
	CleanupOld(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
