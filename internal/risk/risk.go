// Package risk implements transaction risk scoring for wallet transfers.
//
// Every outgoing transfer is evaluated against 3 signals: transfer amount,
// recipient address shape, and description content. Each signal yields a
// 0-100 sub-score; the overall score is the maximum of the three and maps
// to a low/medium/high/critical level that drives credit score adjustment.
package risk

import (
	"context"
	"time"
)

// Level classifies an overall risk score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// LevelForScore maps an overall 0-100 score to a level.
// A score of exactly 20 is still low; 75 is still high.
func LevelForScore(score int) Level {
	switch {
	case score > 75:
		return LevelCritical
	case score > 40:
		return LevelHigh
	case score > 20:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Assessment is the result of scoring a single transfer.
type Assessment struct {
	ID               string    `json:"id"`
	Wallet           string    `json:"wallet"`
	Address          string    `json:"address"`
	Amount           float64   `json:"amount"`
	AmountScore      int       `json:"amountScore"`
	AddressScore     int       `json:"addressScore"`
	DescriptionScore int       `json:"descriptionScore"`
	Score            int       `json:"score"`
	Level            Level     `json:"level"`
	EvaluatedAt      time.Time `json:"evaluatedAt"`
}

// Store persists risk assessments for audit trail.
type Store interface {
	Record(ctx context.Context, assessment *Assessment) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*Assessment, error)
}
