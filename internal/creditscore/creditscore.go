// Package creditscore tracks per-wallet credit scores in the 300-850 band.
//
// Scores start from an external provider (or a deterministic mock) and are
// adjusted after every outgoing transfer according to its risk level. The
// current score is cached in a key-value store so adjustments survive
// restarts without refetching from the provider.
package creditscore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrScoreNotFound = errors.New("credit score not found")
	ErrInvalidScore  = errors.New("invalid credit score")
)

// Score band. Adjustments never move a score outside these bounds.
const (
	MinScore = 300
	MaxScore = 850
)

// MaxNegativeFactors caps the negative factor list.
const MaxNegativeFactors = 3

// HighRiskFactor is prepended to the negative factors after a high or
// critical risk transfer. The exact string is deduplicated, not repeated.
const HighRiskFactor = "Recent high-risk transaction detected"

// Factors lists human-readable reasons behind a score.
type Factors struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// CreditScore is a wallet's current score snapshot.
type CreditScore struct {
	Wallet      string    `json:"wallet,omitempty"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	Factors     Factors   `json:"factors"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Validate checks that a score snapshot is structurally sound.
func (cs *CreditScore) Validate() error {
	if cs == nil {
		return ErrInvalidScore
	}
	if cs.Score < MinScore || cs.Score > MaxScore {
		return ErrInvalidScore
	}
	if cs.MaxScore != MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// Clone returns a deep copy.
func (cs *CreditScore) Clone() *CreditScore {
	cp := *cs
	cp.Factors.Positive = append([]string(nil), cs.Factors.Positive...)
	cp.Factors.Negative = append([]string(nil), cs.Factors.Negative...)
	return &cp
}

// Store persists credit score snapshots keyed by wallet address.
type Store interface {
	Get(ctx context.Context, wallet string) (*CreditScore, error)
	Put(ctx context.Context, wallet string, score *CreditScore) error
	Delete(ctx context.Context, wallet string) error
}

// Provider fetches the initial score for a wallet with no cached snapshot.
type Provider interface {
	Fetch(ctx context.Context, wallet string) (*CreditScore, error)
}
