package service

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/usecase"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// ModerationService is the application entry point for inbound messages
// and operator queries
type ModerationService struct {
	moderationUC *usecase.ModerationUsecase
	classifyUC   *usecase.ClassifyUsecase
	historyRepo  repo.HistoryRepo
	ledgerRepo   repo.LedgerRepo // optional
}

// NewModerationService creates a new moderation service
func NewModerationService(
	moderationUC *usecase.ModerationUsecase,
	classifyUC *usecase.ClassifyUsecase,
	historyRepo repo.HistoryRepo,
	ledgerRepo repo.LedgerRepo,
) *ModerationService {
	classifyUC.SetObserver(observeAttempt)
	return &ModerationService{
		moderationUC: moderationUC,
		classifyUC:   classifyUC,
		historyRepo:  historyRepo,
		ledgerRepo:   ledgerRepo,
	}
}

func observeAttempt(attempt int, raw string, err error, elapsed time.Duration) {
	classifyAttemptDuration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		classifyAttemptCount.WithLabelValues("error").Inc()
	default:
		if _, ok := domain.ParseVerdict(raw); ok {
			classifyAttemptCount.WithLabelValues("valid").Inc()
		} else {
			classifyAttemptCount.WithLabelValues("invalid").Inc()
		}
	}
}

// HandleMessage moderates one inbound message.
// Panics are recovered so one bad message cannot take the bot down.
func (s *ModerationService) HandleMessage(ctx context.Context, msg *domain.InboundMessage) (d *domain.Decision) {
	start := time.Now()
	logger := log.Named("service")

	defer func() {
		if r := recover(); r != nil {
			messagePanicCount.Inc()
			logger.Errorw("moderation handler panic", "err", r, "chat_id", msg.ChatID,
				"message_id", msg.MessageID, "user_id", msg.From.ID, "stack", string(debug.Stack()))
			d = nil
		}
	}()

	d = s.moderationUC.Handle(ctx, msg)

	branch := string(d.Branch)
	if branch == "" {
		branch = "none"
	}
	messageProcessDuration.WithLabelValues(branch).Observe(time.Since(start).Seconds())
	messageProcessCount.WithLabelValues(branch, string(d.Outcome), d.Reason).Inc()
	for _, a := range d.Actions {
		result := "ok"
		if !a.OK() {
			result = "error"
		}
		actionCount.WithLabelValues(string(a.Kind), result).Inc()
	}

	if d.Enforced() {
		logger.Infow("message enforced", "chat_id", msg.ChatID, "message_id", msg.MessageID,
			"user_id", msg.From.ID, "user", msg.From.DisplayName(), "outcome", d.Outcome)
	} else {
		logger.Debugw("message allowed", "chat_id", msg.ChatID, "message_id", msg.MessageID,
			"user_id", msg.From.ID, "reason", d.Reason)
	}
	return d
}

// ClassifyResult is the outcome of an ad-hoc classification
type ClassifyResult struct {
	Verdict  domain.Verdict `json:"verdict"`
	Attempts int            `json:"attempts"`
}

// Classify runs the retry policy on an operator-supplied batch.
// No history is read or written and no platform action is taken.
func (s *ModerationService) Classify(ctx context.Context, messages []string, displayName string) (*ClassifyResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to classify")
	}
	if len(messages) > repo.DefaultRecentLimit {
		messages = messages[len(messages)-repo.DefaultRecentLimit:]
	}
	verdict, attempts, err := s.classifyUC.ClassifyWithRetry(ctx, messages, displayName, s.classifyUC.MaxAttempts())
	if err != nil {
		return nil, err
	}
	return &ClassifyResult{Verdict: verdict, Attempts: attempts}, nil
}

// UserHistory returns a user's buffered messages, oldest first
func (s *ModerationService) UserHistory(ctx context.Context, userID int64, limit int) ([]string, error) {
	if limit <= 0 || limit > repo.HistoryCapacity {
		limit = repo.HistoryCapacity
	}
	return s.historyRepo.Recent(ctx, userID, limit)
}

// ErrLedgerDisabled is returned by ledger queries when no ledger is configured
var ErrLedgerDisabled = errors.New("moderation ledger is disabled")

// RecentActions returns the newest ledger entries
func (s *ModerationService) RecentActions(ctx context.Context, limit int) ([]*domain.ModerationRecord, error) {
	if s.ledgerRepo == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledgerRepo.ListRecent(ctx, limit)
}

// UserActions returns ledger entries for one user
func (s *ModerationService) UserActions(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error) {
	if s.ledgerRepo == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledgerRepo.ListByUser(ctx, userID, limit)
}
