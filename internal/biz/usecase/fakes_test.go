package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
)

// Mock implementations

type scriptedClassifier struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     [][]string
	names     []string
	decide    func(messages []string) string
}

func (c *scriptedClassifier) Classify(ctx context.Context, messages []string, displayName string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.calls)
	c.calls = append(c.calls, append([]string(nil), messages...))
	c.names = append(c.names, displayName)

	if c.decide != nil {
		return c.decide(messages), nil
	}
	if n < len(c.errs) && c.errs[n] != nil {
		return "", c.errs[n]
	}
	if n < len(c.responses) {
		return c.responses[n], nil
	}
	return "", errors.New("no scripted response")
}

func (c *scriptedClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type mockPlatformRepo struct {
	mu        sync.Mutex
	roles     map[int64]domain.MemberRole
	roleErr   error
	deleteErr error
	notifyErr error
	banErr    error
	calls     []string
	notices   []string
	noticeTo  []int64
}

func newMockPlatformRepo() *mockPlatformRepo {
	return &mockPlatformRepo{roles: make(map[int64]domain.MemberRole)}
}

func (m *mockPlatformRepo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockPlatformRepo) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.record("delete")
	return m.deleteErr
}

func (m *mockPlatformRepo) BanUser(ctx context.Context, chatID, userID int64) error {
	m.record("ban")
	return m.banErr
}

func (m *mockPlatformRepo) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.record("notify")
	m.mu.Lock()
	m.notices = append(m.notices, text)
	m.noticeTo = append(m.noticeTo, chatID)
	m.mu.Unlock()
	return m.notifyErr
}

func (m *mockPlatformRepo) GetMemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error) {
	m.record("role")
	if m.roleErr != nil {
		return "", m.roleErr
	}
	if role, ok := m.roles[userID]; ok {
		return role, nil
	}
	return domain.RoleMember, nil
}

// actions returns recorded calls without role lookups
func (m *mockPlatformRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c != "role" {
			out = append(out, c)
		}
	}
	return out
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	buffers map[int64][]string
	readErr error
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{buffers: make(map[int64][]string)}
}

func (m *mockHistoryRepo) Record(ctx context.Context, userID int64, rec domain.MessageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := append(m.buffers[userID], rec.Content)
	if len(buf) > repo.HistoryCapacity {
		buf = buf[len(buf)-repo.HistoryCapacity:]
	}
	m.buffers[userID] = buf
	return nil
}

func (m *mockHistoryRepo) Recent(ctx context.Context, userID int64, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	buf := m.buffers[userID]
	if len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	return append([]string(nil), buf...), nil
}

func (m *mockHistoryRepo) Close() error { return nil }

func (m *mockHistoryRepo) contents(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.buffers[userID]...)
}

type mockLedgerRepo struct {
	mu      sync.Mutex
	records []*domain.ModerationRecord
}

func (m *mockLedgerRepo) Save(ctx context.Context, rec *domain.ModerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockLedgerRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ModerationRecord, error) {
	return m.records, nil
}

func (m *mockLedgerRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error) {
	return nil, nil
}

func (m *mockLedgerRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (m *mockLedgerRepo) Close() error { return nil }

func (m *mockLedgerRepo) saved() []*domain.ModerationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ModerationRecord(nil), m.records...)
}

// spamDetector flags batches whose newest message looks promotional
func spamDetector(messages []string) string {
	last := strings.ToLower(messages[len(messages)-1])
	if strings.Contains(last, "leverage") || strings.Contains(last, "dm me") {
		return "delete"
	}
	return "normal"
}
