package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// ClassifyConfig contains retry policy configuration
type ClassifyConfig struct {
	MaxAttempts    int           // Attempts before giving up, default 3
	AttemptTimeout time.Duration // Per-attempt provider timeout, default 20s
}

// DefaultClassifyConfig returns default retry policy configuration
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{
		MaxAttempts:    3,
		AttemptTimeout: 20 * time.Second,
	}
}

// AttemptObserver is notified after every classification attempt
type AttemptObserver func(attempt int, raw string, err error, elapsed time.Duration)

// ClassifyUsecase wraps the classifier gateway with bounded retry
type ClassifyUsecase struct {
	classifier repo.ClassifierRepo
	config     ClassifyConfig
	observer   AttemptObserver
}

// NewClassifyUsecase creates a new classify usecase
func NewClassifyUsecase(classifier repo.ClassifierRepo, config ClassifyConfig) *ClassifyUsecase {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultClassifyConfig().MaxAttempts
	}
	return &ClassifyUsecase{
		classifier: classifier,
		config:     config,
	}
}

// SetObserver sets the per-attempt observer
func (uc *ClassifyUsecase) SetObserver(observer AttemptObserver) {
	uc.observer = observer
}

// MaxAttempts returns the configured attempt bound
func (uc *ClassifyUsecase) MaxAttempts() int {
	return uc.config.MaxAttempts
}

// ClassifyWithRetry classifies a message batch, retrying immediately on
// provider errors and on responses containing neither verdict token.
// It returns the verdict and the number of attempts used. When every
// attempt fails the error is a *domain.ClassificationExhaustedError.
func (uc *ClassifyUsecase) ClassifyWithRetry(
	ctx context.Context,
	messages []string,
	displayName string,
	maxAttempts int,
) (domain.Verdict, int, error) {
	if maxAttempts <= 0 {
		maxAttempts = uc.config.MaxAttempts
	}

	logger := log.Named("classify")
	var lastRaw string
	var lastErr error

	attempts := 0
	for attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts++

		raw, err := uc.attempt(ctx, messages, displayName, attempts)
		if err != nil {
			logger.Warnw("classification attempt failed", "attempt", attempts, "messages", len(messages), "error", err)
			lastErr = err
			continue
		}

		if verdict, ok := domain.ParseVerdict(raw); ok {
			logger.Debugw("classified", "attempt", attempts, "verdict", verdict, "messages", len(messages))
			return verdict, attempts, nil
		}

		logger.Warnw("unexpected classifier result, retrying", "attempt", attempts, "raw", raw)
		lastRaw = raw
		lastErr = nil
	}

	return "", attempts, &domain.ClassificationExhaustedError{
		Attempts: attempts,
		LastRaw:  lastRaw,
		LastErr:  lastErr,
	}
}

func (uc *ClassifyUsecase) attempt(ctx context.Context, messages []string, displayName string, n int) (string, error) {
	attemptCtx := ctx
	if uc.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, uc.config.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := uc.classifier.Classify(attemptCtx, messages, displayName)
	if err != nil {
		var providerErr *domain.ProviderError
		if !errors.As(err, &providerErr) {
			err = &domain.ProviderError{Err: err}
		}
	}
	if uc.observer != nil {
		uc.observer(n, raw, err, time.Since(start))
	}
	return raw, err
}
