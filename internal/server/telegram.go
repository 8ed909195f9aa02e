package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/infra/telegram"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

const seenTTL = 5 * time.Minute

// UpdateSource delivers Telegram messages until its context is cancelled
type UpdateSource interface {
	OnMessage(handler telegram.MessageHandler)
	Start(ctx context.Context)
}

// MessageHandler moderates one inbound message
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *domain.InboundMessage) *domain.Decision
}

// TelegramServer feeds Telegram updates into the moderation service
type TelegramServer struct {
	source  UpdateSource
	handler MessageHandler
	janitor *service.Janitor // optional

	wg sync.WaitGroup

	// Per-sender FIFO queues; a sender has an entry while a worker drains it
	queueMu sync.Mutex
	active  map[int64][]*domain.InboundMessage

	// Message deduplication cache
	seenMu    sync.Mutex
	seen      map[string]time.Time // chatID:messageID -> first seen
	lastSweep time.Time
	now       func() time.Time
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(source UpdateSource, handler MessageHandler, janitor *service.Janitor) *TelegramServer {
	return &TelegramServer{
		source:  source,
		handler: handler,
		janitor: janitor,
		active:  make(map[int64][]*domain.InboundMessage),
		seen:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// Start polls for updates until ctx is cancelled (blocking).
// In-flight messages are drained before it returns.
func (s *TelegramServer) Start(ctx context.Context) {
	if s.janitor != nil {
		s.janitor.Start(ctx)
		defer s.janitor.Stop()
	}

	s.source.OnMessage(s.handleMessage)
	s.source.Start(ctx)

	log.Named("server").Infow("update source stopped, draining in-flight messages")
	s.wg.Wait()
}

// handleMessage converts and queues one message without blocking the poller
func (s *TelegramServer) handleMessage(ctx context.Context, msg *telegram.Message) {
	logger := log.Named("server")

	if msg.FromID == 0 {
		logger.Debugw("ignoring message without sender", "chat_id", msg.ChatID, "message_id", msg.MessageID)
		return
	}
	if !s.markIfNew(msg.ChatID, msg.MessageID) {
		logger.Debugw("duplicate message ignored", "chat_id", msg.ChatID, "message_id", msg.MessageID)
		return
	}

	inbound := toInbound(msg)
	logger.Debugw("received message", "chat_id", inbound.ChatID, "message_id", inbound.MessageID,
		"user_id", inbound.From.ID, "story", inbound.IsStory(), "content", truncate(inbound.Content(), 50))

	s.enqueue(ctx, inbound)
}

// enqueue hands the message to its sender's worker, starting one if none
// is running. A sender's messages are handled one at a time in arrival
// order; different senders are handled concurrently.
func (s *TelegramServer) enqueue(ctx context.Context, msg *domain.InboundMessage) {
	sender := msg.From.ID

	s.queueMu.Lock()
	if pending, ok := s.active[sender]; ok {
		s.active[sender] = append(pending, msg)
		s.queueMu.Unlock()
		return
	}
	s.active[sender] = []*domain.InboundMessage{}
	s.wg.Add(1)
	s.queueMu.Unlock()

	// handlers outlive the poller so shutdown does not cut enforcement short
	go s.drain(context.WithoutCancel(ctx), sender, msg)
}

// drain handles msg and then every message queued behind it for sender
func (s *TelegramServer) drain(ctx context.Context, sender int64, msg *domain.InboundMessage) {
	defer s.wg.Done()

	for msg != nil {
		s.handler.HandleMessage(ctx, msg)

		s.queueMu.Lock()
		rem := s.active[sender]
		if len(rem) == 0 {
			delete(s.active, sender)
			msg = nil
		} else {
			msg = rem[0]
			s.active[sender] = rem[1:]
		}
		s.queueMu.Unlock()
	}
}

func (s *TelegramServer) activeSenders() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.active)
}

func toInbound(msg *telegram.Message) *domain.InboundMessage {
	in := &domain.InboundMessage{
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		From: domain.Sender{
			ID:        msg.FromID,
			Username:  msg.FromUsername,
			FirstName: msg.FromFirstName,
		},
		Text:       msg.Text,
		Caption:    msg.Caption,
		ReceivedAt: msg.Date,
	}
	if msg.Story != nil {
		in.Story = &domain.StoryRef{
			ChatUsername: msg.Story.ChatUsername,
			ChatTitle:    msg.Story.ChatTitle,
		}
	}
	return in
}

// markIfNew records a message and reports whether it was unseen
func (s *TelegramServer) markIfNew(chatID int64, messageID int) bool {
	key := fmt.Sprintf("%d:%d", chatID, messageID)
	now := s.now()

	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	if ts, ok := s.seen[key]; ok && now.Sub(ts) < seenTTL {
		return false
	}
	s.seen[key] = now

	if now.Sub(s.lastSweep) >= time.Minute {
		cutoff := now.Add(-seenTTL)
		for id, ts := range s.seen {
			if ts.Before(cutoff) {
				delete(s.seen, id)
			}
		}
		s.lastSweep = now
	}
	return true
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
