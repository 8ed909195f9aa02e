package repo

import (
	"context"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
)

// PlatformRepo is the messaging platform action surface
type PlatformRepo interface {
	// DeleteMessage removes a message from a chat
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// BanUser bans a user from a chat
	BanUser(ctx context.Context, chatID, userID int64) error

	// SendMessage sends a plain text message
	SendMessage(ctx context.Context, chatID int64, text string) error

	// GetMemberRole returns the user's status in the chat
	GetMemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error)
}
