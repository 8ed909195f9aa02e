package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
)

// keywordClassifier flags batches whose newest message mentions a keyword
type keywordClassifier struct {
	keyword string
	err     error
}

func (c *keywordClassifier) Classify(ctx context.Context, messages []string, displayName string) (string, error) {
	if c.err != nil {
		return "", &domain.ProviderError{Err: c.err}
	}
	if strings.Contains(strings.ToLower(messages[len(messages)-1]), c.keyword) {
		return "delete", nil
	}
	return "normal", nil
}

type fakePlatform struct {
	mu        sync.Mutex
	calls     []string
	panicOnRm bool
}

func (p *fakePlatform) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if p.panicOnRm {
		panic("delete exploded")
	}
	p.record("delete")
	return nil
}

func (p *fakePlatform) BanUser(ctx context.Context, chatID, userID int64) error {
	p.record("ban")
	return nil
}

func (p *fakePlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	p.record("notify")
	return nil
}

func (p *fakePlatform) GetMemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error) {
	return domain.RoleMember, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	records []*domain.ModerationRecord
	cutoffs []time.Time
}

func (l *fakeLedger) Save(ctx context.Context, rec *domain.ModerationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.ID = int64(len(l.records) + 1)
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLedger) ListRecent(ctx context.Context, limit int) ([]*domain.ModerationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.ModerationRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

func (l *fakeLedger) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.ModerationRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		if l.records[i].UserID == userID {
			out = append(out, l.records[i])
		}
	}
	return out, nil
}

func (l *fakeLedger) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cutoffs = append(l.cutoffs, before)
	var kept []*domain.ModerationRecord
	var n int64
	for _, r := range l.records {
		if r.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	l.records = kept
	return n, nil
}

func (l *fakeLedger) Close() error { return nil }
