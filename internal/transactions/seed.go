package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zkredit/vault/internal/risk"
)

// seedSpec describes one canned demo transaction.
type seedSpec struct {
	txType      Type
	amount      string
	token       string
	value       string
	usdValue    float64
	address     string
	gasUsed     string
	description string
	riskLevel   risk.Level
	riskScore   int
}

// Demo transactions covering every risk level, including one flagged as
// potentially fraudulent, so the dashboard's review flow has data to show.
var demoSeeds = []seedSpec{
	{TypeSend, "7.51", "ETH", "$18,786.16", 18786.16, "0x45A...9f7C", "0.00483 ETH", "Groceries", risk.LevelCritical, 85},
	{TypeSend, "5.78", "ETH", "$14,396.71", 14396.71, "0x71C...8e3B", "0.01468 ETH", "Transfer to new wallet", risk.LevelMedium, 35},
	{TypeSend, "2.35", "ETH", "$5,853.33", 5853.33, "0xf9A82CeD431b8F22BC5b92d5f9929420175Fc2a7", "0.01843 ETH", "Investment in new protocol", risk.LevelHigh, 65},
	{TypeSend, "0.45", "ETH", "$1,120.85", 1120.85, "0x3a2D3F8825B5d9a6bEcBEA54E8E53F726f7e46d9", "0.00845 ETH", "Monthly rent payment", risk.LevelLow, 15},
	{TypeReceive, "0.12", "BTC", "$8,756.60", 8756.60, "0x8f26D3b31C3F6022a91fC0D16BE8Cba6A5E24E3F", "0.01583 ETH", "Payment for consulting services", "", 0},
}

// SeedDemo loads the canned demo transactions into the store and applies
// their net USD effect to the wallet balance in one delta. Risk levels are
// preset; the seeds bypass the scoring pipeline.
func (f *Factory) SeedDemo(ctx context.Context) ([]*Transaction, error) {
	now := time.Now()
	var netDelta float64
	txs := make([]*Transaction, 0, len(demoSeeds))

	for _, seed := range demoSeeds {
		tx := &Transaction{
			ID:          uuid.NewString(),
			Type:        seed.txType,
			Status:      StatusCompleted,
			Amount:      seed.amount,
			Token:       seed.token,
			Value:       seed.value,
			Address:     seed.address,
			Timestamp:   DisplayTimestamp(now),
			GasUsed:     seed.gasUsed,
			Description: seed.description,
			CreatedAt:   now,
		}
		if seed.riskLevel != "" {
			score := seed.riskScore
			tx.RiskLevel = seed.riskLevel
			tx.RiskScore = &score
		}

		if err := f.store.Add(ctx, tx); err != nil {
			return nil, err
		}
		txs = append(txs, tx)

		switch seed.txType {
		case TypeSend:
			netDelta -= seed.usdValue
		case TypeReceive:
			netDelta += seed.usdValue
		}
	}

	if _, err := f.ledger.Apply(ctx, f.wallet, netDelta, "", "demo seed"); err != nil {
		f.logger.Error("failed to apply seed balance delta", "wallet", f.wallet, "error", err)
	}

	f.logger.Info("demo transactions seeded", "count", len(txs), "netDelta", netDelta)
	return txs, nil
}
