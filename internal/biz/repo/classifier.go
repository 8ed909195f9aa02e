package repo

import "context"

// ClassifierRepo is the external text-classification gateway
type ClassifierRepo interface {
	// Classify returns the model's raw response, trimmed and lower-cased.
	// messages are ordered oldest to newest; displayName may be empty.
	// Provider failures are returned as *domain.ProviderError.
	Classify(ctx context.Context, messages []string, displayName string) (string, error)
}
