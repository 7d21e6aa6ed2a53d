// Package alerts manages user price alerts.
//
// An alert watches one asset and fires when its price crosses the target
// in the configured direction. Alerts are keyed by the owner's email; the
// watcher evaluates active alerts against fresh quotes on every poll.
package alerts

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var (
	ErrAlertNotFound = errors.New("price alert not found")
	ErrInvalidAlert  = errors.New("invalid price alert")
)

// AlertType is the crossing direction that fires an alert.
type AlertType string

const (
	AlertAbove AlertType = "above"
	AlertBelow AlertType = "below"
)

// Frequency controls how often an alert may fire.
type Frequency string

const (
	FrequencyOnce   Frequency = "once"   // deactivates after firing
	FrequencyDaily  Frequency = "daily"  // at most once per 24h
	FrequencyAlways Frequency = "always" // every evaluation that matches
)

// PriceAlert is a single user alert.
//
// CurrentPrice and Price are display strings, the shape the alert form
// submits ("$84,704.95" and "90000").
type PriceAlert struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	CryptoSymbol string     `json:"cryptoSymbol"`
	CryptoName   string     `json:"cryptoName,omitempty"`
	CurrentPrice string     `json:"currentPrice,omitempty"`
	Price        string     `json:"price"` // target, numeric string
	AlertType    AlertType  `json:"alertType"`
	Frequency    Frequency  `json:"frequency"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastFiredAt  *time.Time `json:"lastFiredAt,omitempty"`
}

// TargetPrice parses the alert's target. Returns false when the stored
// string is not a positive number.
func (a *PriceAlert) TargetPrice() (float64, bool) {
	target, err := strconv.ParseFloat(a.Price, 64)
	if err != nil || target <= 0 {
		return 0, false
	}
	return target, true
}

// ShouldFire reports whether the alert fires at the given price and time.
func (a *PriceAlert) ShouldFire(price float64, now time.Time) bool {
	if !a.Active || price <= 0 {
		return false
	}
	target, ok := a.TargetPrice()
	if !ok {
		return false
	}

	switch a.AlertType {
	case AlertAbove:
		if price <= target {
			return false
		}
	case AlertBelow:
		if price >= target {
			return false
		}
	default:
		return false
	}

	if a.Frequency == FrequencyDaily && a.LastFiredAt != nil && now.Sub(*a.LastFiredAt) < 24*time.Hour {
		return false
	}
	return true
}

// Store persists price alerts.
type Store interface {
	Create(ctx context.Context, alert *PriceAlert) error
	Get(ctx context.Context, id string) (*PriceAlert, error)
	ListByEmail(ctx context.Context, email string) ([]*PriceAlert, error)
	ListActive(ctx context.Context) ([]*PriceAlert, error)
	SetActive(ctx context.Context, id string, active bool) (*PriceAlert, error)
	MarkFired(ctx context.Context, id string, firedAt time.Time, stillActive bool) error
	Delete(ctx context.Context, id string) error
}
