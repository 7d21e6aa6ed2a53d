package creditscore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zkredit/vault/internal/events"
	"github.com/zkredit/vault/internal/metrics"
	"github.com/zkredit/vault/internal/risk"
	"github.com/zkredit/vault/internal/syncutil"
)

// Service provides credit score business logic.
type Service struct {
	store    Store
	provider Provider
	bus      *events.Bus
	logger   *slog.Logger

	// Serializes read-modify-write cycles per wallet so concurrent
	// adjustments cannot clobber each other.
	locks syncutil.ShardedMutex
}

// NewService creates a new credit score service.
func NewService(store Store, provider Provider, bus *events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// Get returns the wallet's cached score, fetching from the provider and
// caching on a miss. A malformed cached snapshot is also treated as a miss.
func (s *Service) Get(ctx context.Context, wallet string) (*CreditScore, error) {
	cached, err := s.store.Get(ctx, wallet)
	if err == nil {
		if cached.Validate() == nil {
			return cached, nil
		}
		s.logger.Warn("discarding malformed cached credit score", "wallet", wallet)
	} else if !errors.Is(err, ErrScoreNotFound) && !errors.Is(err, ErrInvalidScore) {
		return nil, fmt.Errorf("failed to read cached credit score: %w", err)
	}

	fetched, err := s.provider.Fetch(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credit score: %w", err)
	}
	fetched.Wallet = wallet

	if err := s.store.Put(ctx, wallet, fetched); err != nil {
		// Serve the fetched score even if caching fails
		s.logger.Warn("failed to cache credit score", "wallet", wallet, "error", err)
	}

	return fetched, nil
}

// ApplyRisk adjusts the wallet's score for a transfer at the given risk
// level, persists the result, and publishes an update event. Returns the
// updated score and the applied delta.
func (s *Service) ApplyRisk(ctx context.Context, wallet string, level risk.Level) (*CreditScore, int, error) {
	unlock := s.locks.Lock(wallet)
	defer unlock()

	score, err := s.Get(ctx, wallet)
	if err != nil {
		return nil, 0, err
	}

	delta := Adjust(score, level)

	if err := s.store.Put(ctx, wallet, score); err != nil {
		return nil, 0, fmt.Errorf("failed to persist adjusted credit score: %w", err)
	}

	direction := "unchanged"
	switch {
	case delta > 0:
		direction = "increase"
	case delta < 0:
		direction = "decrease"
	}
	metrics.CreditAdjustmentsTotal.WithLabelValues(direction).Inc()

	if s.bus != nil {
		s.bus.Publish(events.TopicCreditScoreUpdated, map[string]interface{}{
			"wallet": wallet,
			"score":  score.Score,
			"delta":  delta,
			"level":  string(level),
		})
	}

	s.logger.Info("credit score adjusted",
		"wallet", wallet, "level", level, "delta", delta, "score", score.Score)

	return score, delta, nil
}

// Reset drops the cached score so the next Get refetches from the provider.
func (s *Service) Reset(ctx context.Context, wallet string) error {
	return s.store.Delete(ctx, wallet)
}
