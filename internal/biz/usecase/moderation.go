package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// RoleCheckTiming controls when the admin bypass is evaluated on the text branch
type RoleCheckTiming string

const (
	// RoleCheckBefore looks up the sender's role before classifying
	RoleCheckBefore RoleCheckTiming = "before"
	// RoleCheckAfterVerdict looks up the role only after a delete verdict
	RoleCheckAfterVerdict RoleCheckTiming = "after"
)

// ModerationConfig contains moderation engine configuration
type ModerationConfig struct {
	OwnerID       int64
	Whitelist     map[int64]struct{}
	SupportChatID int64 // Only text in this chat is classified
	AuditChatID   int64 // Receives enforcement notifications
	RoleCheck     RoleCheckTiming
	MaxAttempts   int // Classification attempts per message, default 3
	BatchSize     int // Messages per classification batch including the current one, default 10
}

func (c *ModerationConfig) fillDefaults() {
	if c.RoleCheck == "" {
		c.RoleCheck = RoleCheckAfterVerdict
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = repo.DefaultRecentLimit
	}
	if c.Whitelist == nil {
		c.Whitelist = make(map[int64]struct{})
	}
}

// ModerationUsecase is the per-message moderation state machine
type ModerationUsecase struct {
	historyRepo  repo.HistoryRepo
	platformRepo repo.PlatformRepo
	ledgerRepo   repo.LedgerRepo // optional
	classifyUC   *ClassifyUsecase
	config       ModerationConfig
	locks        *keyedMutex
	now          func() time.Time
}

// NewModerationUsecase creates a new moderation usecase.
// ledgerRepo may be nil.
func NewModerationUsecase(
	historyRepo repo.HistoryRepo,
	platformRepo repo.PlatformRepo,
	ledgerRepo repo.LedgerRepo,
	classifyUC *ClassifyUsecase,
	config ModerationConfig,
) *ModerationUsecase {
	config.fillDefaults()
	return &ModerationUsecase{
		historyRepo:  historyRepo,
		platformRepo: platformRepo,
		ledgerRepo:   ledgerRepo,
		classifyUC:   classifyUC,
		config:       config,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

// Config returns the effective configuration
func (uc *ModerationUsecase) Config() ModerationConfig {
	return uc.config
}

// Handle runs one inbound message through the moderation pipeline.
// It never returns an error: failures are recorded on the Decision and
// classification failures fail open.
func (uc *ModerationUsecase) Handle(ctx context.Context, msg *domain.InboundMessage) *domain.Decision {
	sender := msg.From.ID

	if sender == uc.config.OwnerID {
		return noAction("", domain.ReasonOwner)
	}
	if _, ok := uc.config.Whitelist[sender]; ok {
		return noAction("", domain.ReasonWhitelist)
	}

	if msg.IsStory() {
		return uc.handleStory(ctx, msg)
	}

	if !msg.HasContent() {
		return noAction(domain.BranchText, domain.ReasonNoContent)
	}
	if msg.ChatID != uc.config.SupportChatID {
		return noAction(domain.BranchText, domain.ReasonOtherChat)
	}

	return uc.handleText(ctx, msg)
}

// handleStory enforces against shared stories from non-privileged members.
// delete, notify and ban run in order and a failed step aborts the rest.
func (uc *ModerationUsecase) handleStory(ctx context.Context, msg *domain.InboundMessage) *domain.Decision {
	logger := log.Named("moderation")

	if d := uc.checkRole(ctx, msg, domain.BranchStory); d != nil {
		return d
	}

	d := &domain.Decision{
		Outcome: domain.OutcomeMediaEnforced,
		Branch:  domain.BranchStory,
		Reason:  domain.ReasonStory,
	}
	name := msg.From.DisplayName()
	logger.Infow("story post from member, enforcing", "chat_id", msg.ChatID, "user_id", msg.From.ID, "user", name)

	notice := fmt.Sprintf("Deleted story or media post from user: %s\nDetails:\n%s", name, msg.Story.Details())

	if uc.deleteMessage(ctx, d, msg) &&
		uc.notify(ctx, d, msg, notice) {
		uc.ban(ctx, d, msg)
	}

	uc.save(ctx, msg, d)
	return d
}

// handleText classifies the sender's recent history and enforces on a delete verdict
func (uc *ModerationUsecase) handleText(ctx context.Context, msg *domain.InboundMessage) *domain.Decision {
	logger := log.Named("moderation")
	sender := msg.From.ID

	unlock := uc.locks.Lock(sender)
	defer unlock()

	if uc.config.RoleCheck == RoleCheckBefore {
		if d := uc.checkRole(ctx, msg, domain.BranchText); d != nil {
			// an unknown role is not an exemption, keep the message for later batches
			if d.Reason == domain.ReasonRoleLookupFailed {
				uc.record(ctx, msg)
			}
			return d
		}
	}

	content := msg.Content()
	batch := uc.buildBatch(ctx, sender, content)
	uc.record(ctx, msg)

	verdict, attempts, err := uc.classifyUC.ClassifyWithRetry(ctx, batch, msg.From.ProfileName(), uc.config.MaxAttempts)
	d := &domain.Decision{
		Outcome:  domain.OutcomeNoAction,
		Branch:   domain.BranchText,
		Verdict:  verdict,
		Attempts: attempts,
		Batch:    batch,
	}
	if err != nil {
		// Fail open: an unclassifiable message is left in place
		d.Reason = domain.ReasonClassificationFailed
		d.Err = err
		logger.Warnw("classification failed, leaving message in place",
			"chat_id", msg.ChatID, "user_id", sender, "attempts", attempts, "error", err)
		uc.save(ctx, msg, d)
		return d
	}

	logger.Infow("user classified", "user_id", sender, "verdict", verdict, "messages", len(batch), "attempts", attempts)

	if verdict != domain.VerdictDelete {
		d.Reason = domain.ReasonVerdictNormal
		return d
	}

	if uc.config.RoleCheck == RoleCheckAfterVerdict {
		if bypass := uc.checkRole(ctx, msg, domain.BranchText); bypass != nil {
			bypass.Verdict = verdict
			bypass.Attempts = attempts
			bypass.Batch = batch
			return bypass
		}
	}

	d.Outcome = domain.OutcomeTextEnforced
	d.Reason = domain.ReasonVerdictDelete

	name := msg.From.DisplayName()
	notice := fmt.Sprintf("Deleted and banned user: %s\nMessage:\n\n%s", name, content)

	if uc.deleteMessage(ctx, d, msg) {
		// Audit notification failure does not block the ban
		uc.notify(ctx, d, msg, notice)
		uc.ban(ctx, d, msg)
	}

	uc.save(ctx, msg, d)
	return d
}

// buildBatch returns up to BatchSize-1 prior messages followed by content
func (uc *ModerationUsecase) buildBatch(ctx context.Context, userID int64, content string) []string {
	prior, err := uc.historyRepo.Recent(ctx, userID, uc.config.BatchSize-1)
	if err != nil {
		log.Named("moderation").Warnw("failed to read message history, analyzing current message only",
			"user_id", userID, "error", err)
		prior = nil
	}

	batch := make([]string, 0, len(prior)+1)
	batch = append(batch, prior...)
	batch = append(batch, content)
	if len(batch) > uc.config.BatchSize {
		batch = batch[len(batch)-uc.config.BatchSize:]
	}
	return batch
}

// record appends the message to the sender's history buffer
func (uc *ModerationUsecase) record(ctx context.Context, msg *domain.InboundMessage) {
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = uc.now()
	}
	rec := domain.MessageRecord{Content: msg.Content(), Timestamp: receivedAt}
	if err := uc.historyRepo.Record(ctx, msg.From.ID, rec); err != nil {
		log.Named("moderation").Warnw("failed to record message history", "user_id", msg.From.ID, "error", err)
	}
}

// checkRole returns a no-action decision when the sender is privileged or
// the role cannot be determined, nil when moderation should continue
func (uc *ModerationUsecase) checkRole(ctx context.Context, msg *domain.InboundMessage, branch domain.Branch) *domain.Decision {
	role, err := uc.platformRepo.GetMemberRole(ctx, msg.ChatID, msg.From.ID)
	if err != nil {
		log.Named("moderation").Warnw("member role lookup failed, skipping moderation",
			"chat_id", msg.ChatID, "user_id", msg.From.ID, "error", err)
		d := noAction(branch, domain.ReasonRoleLookupFailed)
		d.Err = err
		return d
	}
	if role.IsPrivileged() {
		log.Named("moderation").Debugw("message from privileged member, skipping",
			"chat_id", msg.ChatID, "user_id", msg.From.ID, "role", role)
		return noAction(branch, domain.ReasonPrivilegedRole)
	}
	return nil
}

func (uc *ModerationUsecase) deleteMessage(ctx context.Context, d *domain.Decision, msg *domain.InboundMessage) bool {
	return uc.act(d, msg, domain.ActionDelete, func() error {
		return uc.platformRepo.DeleteMessage(ctx, msg.ChatID, msg.MessageID)
	})
}

func (uc *ModerationUsecase) notify(ctx context.Context, d *domain.Decision, msg *domain.InboundMessage, text string) bool {
	return uc.act(d, msg, domain.ActionNotify, func() error {
		return uc.platformRepo.SendMessage(ctx, uc.config.AuditChatID, text)
	})
}

func (uc *ModerationUsecase) ban(ctx context.Context, d *domain.Decision, msg *domain.InboundMessage) bool {
	return uc.act(d, msg, domain.ActionBan, func() error {
		return uc.platformRepo.BanUser(ctx, msg.ChatID, msg.From.ID)
	})
}

func (uc *ModerationUsecase) act(d *domain.Decision, msg *domain.InboundMessage, kind domain.ActionKind, fn func() error) bool {
	logger := log.Named("moderation")

	err := fn()
	if err != nil {
		err = &domain.ActionError{Action: kind, ChatID: msg.ChatID, UserID: msg.From.ID, Err: err}
		logger.Errorw("moderation action failed", "action", kind, "chat_id", msg.ChatID, "user_id", msg.From.ID, "error", err)
	} else {
		logger.Infow("moderation action done", "action", kind, "chat_id", msg.ChatID, "user_id", msg.From.ID)
	}
	d.Actions = append(d.Actions, domain.ActionResult{Kind: kind, Err: err})
	return err == nil
}

// save writes enforcement and classification-failure decisions to the ledger
func (uc *ModerationUsecase) save(ctx context.Context, msg *domain.InboundMessage, d *domain.Decision) {
	if uc.ledgerRepo == nil {
		return
	}

	rec := &domain.ModerationRecord{
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		UserName:  msg.From.DisplayName(),
		Branch:    d.Branch,
		Outcome:   d.Outcome,
		Reason:    d.Reason,
		Verdict:   d.Verdict,
		Attempts:  d.Attempts,
		Content:   msg.Content(),
		Deleted:   d.Succeeded(domain.ActionDelete),
		Notified:  d.Succeeded(domain.ActionNotify),
		Banned:    d.Succeeded(domain.ActionBan),
		CreatedAt: uc.now(),
	}
	if msg.IsStory() {
		rec.Content = msg.Story.Details()
	}

	var errs []error
	if d.Err != nil {
		errs = append(errs, d.Err)
	}
	for _, a := range d.Actions {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		rec.Error = err.Error()
	}

	if err := uc.ledgerRepo.Save(ctx, rec); err != nil {
		log.Named("moderation").Warnw("failed to write moderation ledger", "user_id", msg.From.ID, "error", err)
	}
}

func noAction(branch domain.Branch, reason string) *domain.Decision {
	return &domain.Decision{
		Outcome: domain.OutcomeNoAction,
		Branch:  branch,
		Reason:  reason,
	}
}
