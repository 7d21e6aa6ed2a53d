package risk

import (
	"math"
	"strconv"
	"strings"
)

// Analyzer scores proposed transactions for the analysis API. It predates
// the Scorer and uses a different model: a weighted blend of recipient
// reputation (derived from the address) and amount size, with different
// level boundaries. The two are kept separate because callers depend on
// each model's observable scores.
type Analyzer struct{}

// NewAnalyzer creates a transaction analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// FlaggedFeature describes a signal that crossed its threshold.
type FlaggedFeature struct {
	Feature   string  `json:"feature"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Analysis is the analyzer's verdict on a proposed transaction.
type Analysis struct {
	RiskScore       float64          `json:"riskScore"`
	RiskLevel       Level            `json:"riskLevel"`
	Explanation     []string         `json:"explanation"`
	FlaggedFeatures []FlaggedFeature `json:"flaggedFeatures,omitempty"`
}

const (
	recipientWeight = 0.7
	amountWeight    = 0.3

	largeAmountThreshold    = 1000
	lowReputationThreshold  = 0.5
	amountNormalizationBase = 10000
)

// Analyze scores a proposed transaction.
// Recipient risk derives from the address's last two hex characters, so
// results are deterministic per recipient.
func (a *Analyzer) Analyze(sender, recipient string, amount float64) *Analysis {
	recipientRisk := recipientReputationRisk(recipient)
	amountRisk := math.Min(amount/amountNormalizationBase, 1)
	score := math.Min((recipientRisk*recipientWeight+amountRisk*amountWeight)*100, 100)

	var level Level
	switch {
	case score < 25:
		level = LevelLow
	case score < 50:
		level = LevelMedium
	case score < 75:
		level = LevelHigh
	default:
		level = LevelCritical
	}

	var explanation []string
	var flagged []FlaggedFeature

	if amount > largeAmountThreshold {
		explanation = append(explanation, "The transaction amount is unusually large")
		flagged = append(flagged, FlaggedFeature{
			Feature:   "transaction_value",
			Value:     amount,
			Threshold: largeAmountThreshold,
		})
	}

	if recipientRisk > lowReputationThreshold {
		explanation = append(explanation, "The recipient address has limited transaction history")
		flagged = append(flagged, FlaggedFeature{
			Feature:   "recipient_reputation",
			Value:     recipientRisk * 100,
			Threshold: 50,
		})
	}

	if level == LevelLow {
		explanation = append(explanation, "No significant risk factors detected")
	}

	return &Analysis{
		RiskScore:       score,
		RiskLevel:       level,
		Explanation:     explanation,
		FlaggedFeatures: flagged,
	}
}

// recipientReputationRisk maps the last two hex characters of an address
// to [0, 1). Non-hex or too-short addresses default to 0.5.
func recipientReputationRisk(recipient string) float64 {
	if len(recipient) < 2 {
		return 0.5
	}
	suffix := strings.ToLower(recipient[len(recipient)-2:])
	n, err := strconv.ParseInt(suffix, 16, 64)
	if err != nil {
		return 0.5
	}
	return float64(n%100) / 100
}
