package creditscore

import (
	"context"
)

// RiskProfile summarizes a wallet's overall standing.
type RiskProfile struct {
	OverallRisk string   `json:"overallRisk"` // "low", "medium", "high"
	Details     []string `json:"details"`
}

// WalletStats are deterministic usage statistics derived from the address.
type WalletStats struct {
	Age              int `json:"age"` // days
	TransactionCount int `json:"transactionCount"`
	AverageValue     int `json:"averageValue"`
	TotalVolume      int `json:"totalVolume"`
}

// WalletAnalysis combines the credit score with a risk profile and stats.
type WalletAnalysis struct {
	CreditScore *CreditScore `json:"creditScore"`
	RiskProfile RiskProfile  `json:"riskProfile"`
	WalletStats WalletStats  `json:"walletStats"`
}

// AnalyzeWallet builds a full analysis from the wallet's current score.
// The risk profile reflects adjustments already applied to the score.
func (s *Service) AnalyzeWallet(ctx context.Context, wallet string) (*WalletAnalysis, error) {
	score, err := s.Get(ctx, wallet)
	if err != nil {
		return nil, err
	}

	profile := riskProfileForScore(score.Score)

	seed := WalletSeed(wallet)
	txCount := 10 + seed%500
	avgValue := 50 + seed%1000
	stats := WalletStats{
		Age:              30 + seed%1000,
		TransactionCount: txCount,
		AverageValue:     avgValue,
		TotalVolume:      avgValue * txCount,
	}

	return &WalletAnalysis{
		CreditScore: score,
		RiskProfile: profile,
		WalletStats: stats,
	}, nil
}

func riskProfileForScore(score int) RiskProfile {
	switch {
	case score > 750:
		return RiskProfile{
			OverallRisk: "low",
			Details: []string{
				"Long history of responsible transactions",
				"No interactions with known suspicious addresses",
				"Consistent transaction patterns",
			},
		}
	case score > 650:
		return RiskProfile{
			OverallRisk: "medium",
			Details: []string{
				"Some interactions with newer protocols",
				"Occasional high-value transactions",
				"Moderate token diversity",
			},
		}
	default:
		return RiskProfile{
			OverallRisk: "high",
			Details: []string{
				"Limited transaction history",
				"Interactions with addresses of concern",
				"Unusual transaction patterns",
			},
		}
	}
}
