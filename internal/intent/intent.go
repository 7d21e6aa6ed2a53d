// Package intent classifies the likely purpose of a transfer from its
// amount and the sender/recipient address shapes.
package intent

import (
	"math"
)

// Known intent labels.
const (
	IntentGasFee   = "gas_fee_payment"
	IntentDonation = "donation"
	IntentPayment  = "payment_for_goods_or_services"
	IntentNFT      = "NFT_purchase"
	IntentTransfer = "transfer_between_wallets"
)

// maxConfidence caps the reported confidence.
const maxConfidence = 0.98

// Prediction is a classified transfer intent with supporting reasons.
type Prediction struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Predictor classifies transfer intents. Stateless.
type Predictor struct{}

// NewPredictor creates an intent predictor.
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Predict classifies a transfer by value band, then boosts confidence when
// the sender and recipient share a 4-character address prefix (a sign of
// wallets under common ownership).
func (p *Predictor) Predict(sender, recipient string, value float64) *Prediction {
	var (
		intent     string
		confidence float64
		reasons    []string
	)

	switch {
	case value < 0.01:
		intent = IntentGasFee
		confidence = 0.92
		reasons = append(reasons, "Very small transaction amount typical of gas fee payments")
	case value < 0.1:
		intent = IntentDonation
		confidence = 0.75
		reasons = append(reasons, "Small round amount typical of donations")
	case value > 10 && math.Mod(value, 1) == 0:
		intent = IntentPayment
		confidence = 0.85
		reasons = append(reasons, "Clean round number typical of payment for services")
	case value >= 0.1 && value <= 5:
		intent = IntentNFT
		confidence = 0.82
		reasons = append(reasons, "Amount falls within common NFT price range")
	default:
		intent = IntentTransfer
		confidence = 0.65
		reasons = append(reasons, "Transaction characteristics suggest a transfer between owned wallets")
	}

	if len(sender) > 4 && len(recipient) > 4 && sender[:4] == recipient[:4] {
		reasons = append(reasons, "Sender and recipient have similar wallet patterns")
		if intent == IntentTransfer {
			confidence += 0.15
		}
	}

	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	return &Prediction{
		Intent:     intent,
		Confidence: confidence,
		Reasons:    reasons,
	}
}
