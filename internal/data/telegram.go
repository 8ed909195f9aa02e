package data

import (
	"context"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/telegram"
)

// telegramRepo implements the platform repository
type telegramRepo struct {
	client *telegram.Client
}

// NewTelegramRepo creates a new Telegram repository
func NewTelegramRepo(client *telegram.Client) repo.PlatformRepo {
	return &telegramRepo{client: client}
}

func (r *telegramRepo) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return r.client.DeleteMessage(ctx, chatID, messageID)
}

func (r *telegramRepo) BanUser(ctx context.Context, chatID, userID int64) error {
	return r.client.BanChatMember(ctx, chatID, userID)
}

func (r *telegramRepo) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.client.SendText(ctx, chatID, text)
}

// GetMemberRole maps the Bot API status onto a member role
func (r *telegramRepo) GetMemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error) {
	status, err := r.client.GetMemberStatus(ctx, chatID, userID)
	if err != nil {
		return "", err
	}
	return domain.MemberRole(status), nil
}
