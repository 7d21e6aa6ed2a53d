package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/zkredit/vault/internal/creditscore"
	"github.com/zkredit/vault/internal/events"
	"github.com/zkredit/vault/internal/ledger"
	"github.com/zkredit/vault/internal/metrics"
	"github.com/zkredit/vault/internal/risk"
	"github.com/zkredit/vault/internal/traces"
)

// Gas estimates are uniformly random in [0.001, 0.02) ETH.
const (
	gasMin  = 0.001
	gasSpan = 0.019
)

// CreateRequest carries the submission form fields for a new transaction.
type CreateRequest struct {
	Type        Type
	Amount      float64
	Token       string // defaults to ETH
	Address     string
	Description string
}

// Factory builds transaction records and runs the risk pipeline.
//
// Balance and credit score updates are best-effort: failures are logged
// and the transaction is still created, so a flaky store never blocks a
// transfer from showing up on the dashboard.
type Factory struct {
	store  Store
	ledger *ledger.Ledger
	scorer *risk.Scorer
	credit *creditscore.Service
	bus    *events.Bus
	wallet string // dashboard wallet whose balance and score move
	logger *slog.Logger
	gas    func() float64
}

// NewFactory creates a transaction factory for the given dashboard wallet.
func NewFactory(store Store, l *ledger.Ledger, scorer *risk.Scorer, credit *creditscore.Service, bus *events.Bus, wallet string, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		store:  store,
		ledger: l,
		scorer: scorer,
		credit: credit,
		bus:    bus,
		wallet: wallet,
		logger: logger,
		gas:    func() float64 { return gasMin + rand.Float64()*gasSpan },
	}
}

// Create builds a transaction record, applies the balance delta, and for
// sends runs risk scoring, credit adjustment, and event notification.
// The returned transaction always has status completed; risk fields are
// present iff the type is send.
func (f *Factory) Create(ctx context.Context, req CreateRequest) (*Transaction, error) {
	if !ValidType(req.Type) {
		return nil, ErrInvalidType
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount < 0 {
		return nil, ErrInvalidAmount
	}

	token := req.Token
	if token == "" {
		token = "ETH"
	}

	ctx, span := traces.StartSpan(ctx, "transactions.create",
		traces.Wallet(f.wallet),
		traces.TransactionType(string(req.Type)),
		traces.Token(token),
		traces.Amount(req.Amount),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.FactoryDuration.Observe(time.Since(start).Seconds())
	}()

	usdValue := req.Amount * RateFor(token)
	now := time.Now()

	tx := &Transaction{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Status:      StatusCompleted,
		Amount:      fmt.Sprintf("%.2f", req.Amount),
		Token:       token,
		Value:       FormatUSD(usdValue),
		Address:     req.Address,
		Timestamp:   DisplayTimestamp(now),
		GasUsed:     fmt.Sprintf("%.5f ETH", f.gas()),
		Description: req.Description,
		CreatedAt:   now,
	}

	f.applyBalance(ctx, tx, usdValue)

	if req.Type == TypeSend {
		assessment := f.scorer.Score(ctx, f.wallet, req.Amount, req.Address, req.Description)
		score := assessment.Score
		tx.RiskLevel = assessment.Level
		tx.RiskScore = &score
		span.SetAttributes(traces.RiskLevel(string(assessment.Level)))

		if _, _, err := f.credit.ApplyRisk(ctx, f.wallet, assessment.Level); err != nil {
			f.logger.Error("failed to adjust credit score", "wallet", f.wallet, "error", err)
		}

		if f.bus != nil {
			f.bus.Publish(events.TopicTransactionProcessed, map[string]interface{}{
				"wallet":      f.wallet,
				"transaction": tx,
			})
		}
	}

	if err := f.store.Add(ctx, tx); err != nil {
		f.logger.Error("failed to persist transaction", "id", tx.ID, "error", err)
	}

	levelLabel := string(tx.RiskLevel)
	if levelLabel == "" {
		levelLabel = "none"
	}
	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), levelLabel).Inc()

	f.logger.Info("transaction created",
		"id", tx.ID, "type", tx.Type, "token", token,
		"amount", tx.Amount, "value", tx.Value, "riskLevel", tx.RiskLevel)

	return tx, nil
}

// applyBalance moves the wallet balance by the transaction's USD value.
// Sends subtract, receives add, swaps and contract calls leave it alone.
func (f *Factory) applyBalance(ctx context.Context, tx *Transaction, usdValue float64) {
	var delta float64
	switch tx.Type {
	case TypeSend:
		delta = -usdValue
	case TypeReceive:
		delta = usdValue
	default:
		return
	}

	if _, err := f.ledger.Apply(ctx, f.wallet, delta, tx.ID, string(tx.Type)+" "+tx.Amount+" "+tx.Token); err != nil {
		f.logger.Error("failed to update wallet balance", "wallet", f.wallet, "error", err)
	}
}
