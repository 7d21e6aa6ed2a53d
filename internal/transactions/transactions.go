// Package transactions assembles and persists wallet transaction records.
//
// The factory builds a complete record from the submission form fields:
// formatted amounts, a USD value from the fixed per-token rate table, a
// random gas estimate, and a display timestamp. Outgoing transfers also run
// the risk scoring and credit adjustment pipeline before the record is
// appended to the global newest-first list.
package transactions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/zkredit/vault/internal/pagination"
	"github.com/zkredit/vault/internal/risk"
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid transaction amount")
)

// Type classifies a transaction.
type Type string

const (
	TypeSend     Type = "send"
	TypeReceive  Type = "receive"
	TypeSwap     Type = "swap"
	TypeContract Type = "contract"
)

// ValidType reports whether t is a known transaction type.
func ValidType(t Type) bool {
	switch t {
	case TypeSend, TypeReceive, TypeSwap, TypeContract:
		return true
	}
	return false
}

// Status of a transaction. The factory only ever produces completed
// records; pending and failed exist for imported history.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Transaction is a single wallet transaction record.
//
// Amount, Value, GasUsed, and Timestamp are display-formatted strings, the
// shape the dashboard renders directly. CreatedAt is the sortable instant.
type Transaction struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Status      Status     `json:"status"`
	Amount      string     `json:"amount"` // token quantity, 2 decimals
	Token       string     `json:"token"`
	Value       string     `json:"value"` // USD, e.g. "$18,786.16"
	Address     string     `json:"address"`
	Timestamp   string     `json:"timestamp"` // locale display string
	GasUsed     string     `json:"gasUsed"`   // e.g. "0.00483 ETH"
	Description string     `json:"description,omitempty"`
	RiskLevel   risk.Level `json:"riskLevel,omitempty"`
	RiskScore   *int       `json:"riskScore,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Store persists the global transaction list, newest first.
// ListBefore returns transactions strictly older than the cursor
// position; a nil cursor starts from the newest.
type Store interface {
	Add(ctx context.Context, tx *Transaction) error
	List(ctx context.Context, limit int) ([]*Transaction, error)
	ListBefore(ctx context.Context, cur *pagination.Cursor, limit int) ([]*Transaction, error)
	Clear(ctx context.Context) error
}

// Fixed per-token USD conversion rates. Unknown tokens convert 1:1.
const (
	RateETH = 2490.78
	RateBTC = 72971.65
	RateNFT = 132.12
)

// RateFor returns the USD rate for a token symbol.
func RateFor(token string) float64 {
	switch strings.ToUpper(token) {
	case "ETH":
		return RateETH
	case "BTC":
		return RateBTC
	case "NFT":
		return RateNFT
	default:
		return 1
	}
}

// FormatUSD renders a USD amount with a dollar sign, thousands separators,
// and two decimals, e.g. 18786.16 → "$18,786.16".
func FormatUSD(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// timestampLayout mirrors the dashboard's locale display format.
const timestampLayout = "1/2/2006, 3:04:05 PM"

// DisplayTimestamp formats a time the way the dashboard renders it.
func DisplayTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}
