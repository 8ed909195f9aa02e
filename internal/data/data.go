package data

import (
	"context"
	"fmt"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/conf"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/llm"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	History    repo.HistoryRepo
	Classifier repo.ClassifierRepo
	Platform   repo.PlatformRepo
	Ledger     repo.LedgerRepo // nil when the ledger is disabled
}

// NewRepositories creates all repositories
func NewRepositories(
	ctx context.Context,
	cfg *conf.Config,
	telegramClient *telegram.Client,
	llmClient *llm.Client,
) (*Repositories, error) {
	history, err := NewHistoryRepo(ctx, &cfg.History)
	if err != nil {
		return nil, err
	}

	var ledger repo.LedgerRepo
	if cfg.Ledger.DBPath != "" {
		ledger, err = NewLedgerRepo(cfg.Ledger.DBPath)
		if err != nil {
			history.Close()
			return nil, err
		}
	}

	return &Repositories{
		History:    history,
		Classifier: NewClassifierRepo(llmClient, cfg.Policy.SystemText()),
		Platform:   NewTelegramRepo(telegramClient),
		Ledger:     ledger,
	}, nil
}

// NewHistoryRepo creates the configured history backend
func NewHistoryRepo(ctx context.Context, cfg *conf.HistoryConfig) (repo.HistoryRepo, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryHistoryRepo(cfg.MaxUsers, cfg.IdleTTL()), nil
	case "redis":
		return NewRedisHistoryRepo(ctx, cfg.RedisURL, cfg.IdleTTL())
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Close releases all repositories
func (r *Repositories) Close() error {
	err := r.History.Close()
	if r.Ledger != nil {
		if lerr := r.Ledger.Close(); lerr != nil && err == nil {
			err = lerr
		}
	}
	return err
}
