package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/usecase"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/data"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/telegram"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

// replaySource delivers a fixed set of messages and returns
type replaySource struct {
	msgs    []*telegram.Message
	handler telegram.MessageHandler
}

func (r *replaySource) OnMessage(handler telegram.MessageHandler) { r.handler = handler }

func (r *replaySource) Start(ctx context.Context) {
	for _, m := range r.msgs {
		r.handler(ctx, m)
	}
}

type recordingHandler struct {
	mu    sync.Mutex
	msgs  []*domain.InboundMessage
	delay time.Duration
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg *domain.InboundMessage) *domain.Decision {
	time.Sleep(h.delay)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return &domain.Decision{Outcome: domain.OutcomeNoAction}
}

func TestTelegramServer_DispatchesAndDedupes(t *testing.T) {
	src := &replaySource{msgs: []*telegram.Message{
		{ChatID: -1, MessageID: 1, FromID: 5, FromUsername: "bob", Text: "hi"},
		{ChatID: -1, MessageID: 1, FromID: 5, Text: "hi"},
		{ChatID: -2, MessageID: 1, FromID: 5, Text: "other chat same id"},
		{ChatID: -1, MessageID: 2, Text: "channel post"},
		{ChatID: -1, MessageID: 3, FromID: 6, Caption: "c", Story: &telegram.Story{ChatUsername: "x", ChatTitle: "y"}},
	}}
	h := &recordingHandler{delay: 20 * time.Millisecond}

	s := NewTelegramServer(src, h, nil)
	s.Start(context.Background())

	// Start returns only after in-flight handlers finish
	require.Len(t, h.msgs, 3)

	byID := map[int64]*domain.InboundMessage{}
	for _, m := range h.msgs {
		if m.MessageID == 3 {
			byID[m.From.ID] = m
		}
	}
	story := byID[6]
	require.NotNil(t, story)
	require.True(t, story.IsStory())
	assert.Equal(t, "x", story.Story.ChatUsername)
	assert.Equal(t, "c", story.Caption)
}

func (h *recordingHandler) texts(userID int64) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, m := range h.msgs {
		if m.From.ID == userID {
			out = append(out, m.Text)
		}
	}
	return out
}

func burst(userID int64, chatID int64, firstID, n int) []*telegram.Message {
	msgs := make([]*telegram.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, &telegram.Message{
			ChatID:    chatID,
			MessageID: firstID + i,
			FromID:    userID,
			Text:      fmt.Sprintf("m%02d", i),
		})
	}
	return msgs
}

func TestTelegramServer_SameSenderHandledInArrivalOrder(t *testing.T) {
	msgs := append(burst(5, -1, 1, 20), burst(6, -1, 100, 20)...)
	h := &recordingHandler{delay: time.Millisecond}

	s := NewTelegramServer(&replaySource{msgs: msgs}, h, nil)
	s.Start(context.Background())

	want := make([]string, 20)
	for i := range want {
		want[i] = fmt.Sprintf("m%02d", i)
	}
	assert.Equal(t, want, h.texts(5))
	assert.Equal(t, want, h.texts(6))
	assert.Equal(t, 0, s.activeSenders())
}

// gatedHandler blocks sender 1 until sender 2 has been handled
type gatedHandler struct {
	release  chan struct{}
	released bool
}

func (h *gatedHandler) HandleMessage(ctx context.Context, msg *domain.InboundMessage) *domain.Decision {
	switch msg.From.ID {
	case 1:
		select {
		case <-h.release:
			h.released = true
		case <-time.After(2 * time.Second):
		}
	case 2:
		close(h.release)
	}
	return &domain.Decision{Outcome: domain.OutcomeNoAction}
}

func TestTelegramServer_DifferentSendersRunConcurrently(t *testing.T) {
	src := &replaySource{msgs: []*telegram.Message{
		{ChatID: -1, MessageID: 1, FromID: 1, Text: "slow"},
		{ChatID: -1, MessageID: 2, FromID: 2, Text: "fast"},
	}}
	h := &gatedHandler{release: make(chan struct{})}

	NewTelegramServer(src, h, nil).Start(context.Background())

	assert.True(t, h.released)
}

type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, messages []string, displayName string) (string, error) {
	time.Sleep(time.Duration(len(messages)%3) * time.Millisecond)
	return "normal", nil
}

type memberPlatform struct{}

func (memberPlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return nil
}

func (memberPlatform) BanUser(ctx context.Context, chatID, userID int64) error {
	return nil
}

func (memberPlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	return nil
}

func (memberPlatform) GetMemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error) {
	return domain.RoleMember, nil
}

func TestTelegramServer_HistoryKeepsArrivalOrder(t *testing.T) {
	const supportChat int64 = -1001
	history := data.NewMemoryHistoryRepo(100, time.Hour)
	defer history.Close()

	classifyUC := usecase.NewClassifyUsecase(slowClassifier{}, usecase.DefaultClassifyConfig())
	moderationUC := usecase.NewModerationUsecase(history, memberPlatform{}, nil, classifyUC, usecase.ModerationConfig{
		OwnerID:       1,
		SupportChatID: supportChat,
		AuditChatID:   -2002,
	})
	svc := service.NewModerationService(moderationUC, classifyUC, history, nil)

	s := NewTelegramServer(&replaySource{msgs: burst(42, supportChat, 1, 20)}, svc, nil)
	s.Start(context.Background())

	got, err := history.Recent(context.Background(), 42, 20)
	require.NoError(t, err)
	want := make([]string, 20)
	for i := range want {
		want[i] = fmt.Sprintf("m%02d", i)
	}
	assert.Equal(t, want, got)
}

func TestMarkIfNew_Expires(t *testing.T) {
	now := time.Now()
	s := NewTelegramServer(&replaySource{}, &recordingHandler{}, nil)
	s.now = func() time.Time { return now }

	assert.True(t, s.markIfNew(1, 1))
	assert.False(t, s.markIfNew(1, 1))

	now = now.Add(seenTTL + time.Minute)
	assert.True(t, s.markIfNew(2, 2))
	assert.Len(t, s.seen, 1)
	assert.True(t, s.markIfNew(1, 1))
}

func TestToInbound(t *testing.T) {
	date := time.Unix(1700000000, 0)
	in := toInbound(&telegram.Message{ChatID: -1, MessageID: 9, FromID: 3, FromFirstName: "Ann", Text: "t", Date: date})

	assert.Equal(t, int64(-1), in.ChatID)
	assert.Equal(t, "Ann", in.From.DisplayName())
	assert.Equal(t, date, in.ReceivedAt)
	assert.False(t, in.IsStory())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "a b", truncate("a\nb", 5))
}
