package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// ChatClient sends a system and user prompt to a language model
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// classifierRepo implements the classifier gateway
type classifierRepo struct {
	client       ChatClient
	systemPrompt string
}

// NewClassifierRepo creates a classifier repository
func NewClassifierRepo(client ChatClient, systemPrompt string) repo.ClassifierRepo {
	return &classifierRepo{client: client, systemPrompt: systemPrompt}
}

// Classify asks the model for a verdict on the batch
func (r *classifierRepo) Classify(ctx context.Context, messages []string, displayName string) (string, error) {
	log.Named("classifier").Debugw("prompting model", "messages", len(messages))

	resp, err := r.client.Chat(ctx, r.systemPrompt, BuildAnalysisPrompt(messages, displayName))
	if err != nil {
		return "", &domain.ProviderError{Err: err}
	}
	return strings.ToLower(strings.TrimSpace(resp)), nil
}

// BuildAnalysisPrompt formats the user prompt for a batch ordered oldest to newest
func BuildAnalysisPrompt(messages []string, displayName string) string {
	var sb strings.Builder

	if len(messages) == 1 {
		fmt.Fprintf(&sb, `Analyze this single message from the user: "%s"`, messages[0])
		if displayName != "" {
			fmt.Fprintf(&sb, "\n\nThe user's display name is: \"%s\".", displayName)
		}
		sb.WriteString("\n\nWatch for impersonation: a display name that looks like official support, an admin or the team, combined with an offer of private help, is a scam.")
		return sb.String()
	}

	sb.WriteString("Analyze all these messages from the user (oldest to newest):\n\n")
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, `%d. "%s"`, i+1, msg)
	}
	if displayName != "" {
		fmt.Fprintf(&sb, "\n\nThe user's display name is: \"%s\".", displayName)
	}
	sb.WriteString("\n\nBased on ALL these messages, determine if this user should be deleted/banned or is normal.")
	return sb.String()
}
