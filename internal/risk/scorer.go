package risk

import (
	"context"
	"strings"
	"time"

	"github.com/zkredit/vault/internal/idgen"
	"github.com/zkredit/vault/internal/metrics"
)

// Amount sub-scores use stepped thresholds; checks run in ascending order
// and each satisfied threshold overwrites the previous one, so the largest
// satisfied threshold wins. Comparisons are strict: exactly 10 scores 0.
const (
	amountRiskTier1 = 20 // amount > 10
	amountRiskTier2 = 40 // amount > 50
	amountRiskTier3 = 60 // amount > 100
	amountRiskTier4 = 80 // amount > 1000
)

// Address sub-scores. The short-address check runs after the zero-prefix
// check and overwrites it, so a short address containing "0x0000" scores 50.
const (
	addressRiskZeroPattern = 70 // address contains "0x0000"
	addressRiskShort       = 50 // address shorter than 10 chars
)

// descriptionRiskFlagged is assigned when any flagged keyword appears.
const descriptionRiskFlagged = 95

// flaggedKeywords trigger the description sub-score on case-insensitive
// substring match. First match short-circuits.
var flaggedKeywords = []string{
	"drugs", "illegal", "anonymous", "mixer", "tumbler", "wash", "launder",
}

// Scorer evaluates transfers against the amount, address, and description
// signals. Stateless apart from the optional audit store.
type Scorer struct {
	store Store
}

// NewScorer creates a risk scorer backed by the given audit store.
// A nil store disables the audit trail.
func NewScorer(store Store) *Scorer {
	return &Scorer{store: store}
}

// Score evaluates a transfer and returns an assessment.
// Pure in-memory computation; the audit record is written asynchronously.
func (s *Scorer) Score(ctx context.Context, wallet string, amount float64, address, description string) *Assessment {
	amountScore := amountRisk(amount)
	addressScore := addressRisk(address)
	descScore := descriptionRisk(description)

	overall := amountScore
	if addressScore > overall {
		overall = addressScore
	}
	if descScore > overall {
		overall = descScore
	}

	assessment := &Assessment{
		ID:               idgen.WithPrefix("risk_"),
		Wallet:           wallet,
		Address:          address,
		Amount:           amount,
		AmountScore:      amountScore,
		AddressScore:     addressScore,
		DescriptionScore: descScore,
		Score:            overall,
		Level:            LevelForScore(overall),
		EvaluatedAt:      time.Now(),
	}

	metrics.RiskAssessmentsTotal.WithLabelValues(string(assessment.Level)).Inc()

	// Persist asynchronously (best-effort audit trail)
	if s.store != nil {
		go func() {
			_ = s.store.Record(context.Background(), assessment)
		}()
	}

	return assessment
}

func amountRisk(amount float64) int {
	score := 0
	if amount > 10 {
		score = amountRiskTier1
	}
	if amount > 50 {
		score = amountRiskTier2
	}
	if amount > 100 {
		score = amountRiskTier3
	}
	if amount > 1000 {
		score = amountRiskTier4
	}
	return score
}

func addressRisk(address string) int {
	score := 0
	if strings.Contains(strings.ToLower(address), "0x0000") {
		score = addressRiskZeroPattern
	}
	if len(address) < 10 {
		score = addressRiskShort
	}
	return score
}

func descriptionRisk(description string) int {
	if description == "" {
		return 0
	}
	lower := strings.ToLower(description)
	for _, keyword := range flaggedKeywords {
		if strings.Contains(lower, keyword) {
			return descriptionRiskFlagged
		}
	}
	return 0
}
