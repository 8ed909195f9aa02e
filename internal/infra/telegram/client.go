package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// Message represents a received Telegram group message
type Message struct {
	ChatID        int64
	MessageID     int
	FromID        int64
	FromUsername  string
	FromFirstName string
	FromIsBot     bool
	Text          string
	Caption       string
	Story         *Story // Set when the message forwards a story
	Date          time.Time
}

// Story describes a shared story
type Story struct {
	ChatUsername string
	ChatTitle    string
}

// MessageHandler is the callback for received messages
type MessageHandler func(ctx context.Context, msg *Message)

// Client is the Telegram Bot API client
type Client struct {
	b         *bot.Bot
	onMessage MessageHandler
}

// NewClient creates a new Telegram client.
// Extra options are appended after the defaults.
func NewClient(token string, opts ...bot.Option) (*Client, error) {
	c := &Client{}

	options := []bot.Option{
		bot.WithDefaultHandler(c.handleUpdate),
		bot.WithErrorsHandler(func(err error) {
			log.Named("telegram").Warnw("bot api error", "error", err)
		}),
	}
	options = append(options, opts...)

	b, err := bot.New(token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.b = b
	return c, nil
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start polls for updates until ctx is cancelled (blocking)
func (c *Client) Start(ctx context.Context) {
	log.Named("telegram").Infow("starting long polling")
	c.b.Start(ctx)
}

func (c *Client) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || c.onMessage == nil {
		return
	}
	c.onMessage(ctx, convertMessage(update.Message))
}

func convertMessage(m *models.Message) *Message {
	msg := &Message{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		Text:      m.Text,
		Caption:   m.Caption,
		Date:      time.Unix(int64(m.Date), 0),
	}
	if m.From != nil {
		msg.FromID = m.From.ID
		msg.FromUsername = m.From.Username
		msg.FromFirstName = m.From.FirstName
		msg.FromIsBot = m.From.IsBot
	}
	if m.Story != nil {
		msg.Story = &Story{
			ChatUsername: m.Story.Chat.Username,
			ChatTitle:    m.Story.Chat.Title,
		}
	}
	return msg
}

// DeleteMessage deletes a message from a chat
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// BanChatMember bans a user from a chat
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64) error {
	_, err := c.b.BanChatMember(ctx, &bot.BanChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("ban chat member: %w", err)
	}
	return nil
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// GetMemberStatus returns the raw chat member status, e.g. "administrator"
func (c *Client) GetMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	member, err := c.b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return string(member.Type), nil
}
