package domain

import "time"

// Sender represents the author of an inbound message
type Sender struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName returns the username if set, otherwise the first name
func (s Sender) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.FirstName
}

// ProfileName combines first name and username for classifier context
func (s Sender) ProfileName() string {
	switch {
	case s.FirstName != "" && s.Username != "":
		return s.FirstName + " (@" + s.Username + ")"
	case s.Username != "":
		return "@" + s.Username
	}
	return s.FirstName
}

// StoryRef describes a shared story/status attached to a message
type StoryRef struct {
	ChatUsername string
	ChatTitle    string
}

// Details formats the story origin for audit notifications
func (s *StoryRef) Details() string {
	username := s.ChatUsername
	if username == "" {
		username = "unknown"
	}
	title := s.ChatTitle
	if title == "" {
		title = "No Title"
	}
	return "Shared story from @" + username + ": \"" + title + "\""
}

// InboundMessage is a platform message event reduced to what moderation needs
type InboundMessage struct {
	ChatID     int64
	MessageID  int
	From       Sender
	Text       string
	Caption    string
	Story      *StoryRef // non-nil when the message shares a story
	ReceivedAt time.Time
}

// Content returns the caption if present, otherwise the text
func (m *InboundMessage) Content() string {
	if m.Caption != "" {
		return m.Caption
	}
	return m.Text
}

// HasContent reports whether the message carries text or a caption
func (m *InboundMessage) HasContent() bool {
	return m.Content() != ""
}

// IsStory reports whether the message shares a story
func (m *InboundMessage) IsStory() bool {
	return m.Story != nil
}

// MessageRecord is one entry of a user's history buffer. Never mutated.
type MessageRecord struct {
	Content   string
	Timestamp time.Time
}
