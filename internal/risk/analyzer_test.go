package risk

import (
	"math"
	"testing"
)

func TestRecipientReputationRisk(t *testing.T) {
	tests := []struct {
		recipient string
		want      float64
	}{
		{"0xabcdef00", 0.0},  // 0x00 = 0
		{"0xabcdef63", 0.99}, // 0x63 = 99
		{"0xabcdefff", 0.55}, // 0xff = 255, 255 % 100 = 55
		{"0xABCDEFFF", 0.55}, // case-insensitive
		{"z", 0.5},           // too short
		{"0xabczz", 0.5},     // non-hex suffix
	}

	for _, tc := range tests {
		if got := recipientReputationRisk(tc.recipient); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("recipientReputationRisk(%q) = %v, want %v", tc.recipient, got, tc.want)
		}
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	a := NewAnalyzer()

	first := a.Analyze("0xsender01", "0xrecipient42", 500)
	second := a.Analyze("0xsender01", "0xrecipient42", 500)

	if first.RiskScore != second.RiskScore {
		t.Errorf("Expected deterministic score, got %v and %v", first.RiskScore, second.RiskScore)
	}
	if first.RiskLevel != second.RiskLevel {
		t.Errorf("Expected deterministic level, got %s and %s", first.RiskLevel, second.RiskLevel)
	}
}

func TestAnalyzer_ScoreFormula(t *testing.T) {
	a := NewAnalyzer()

	// Suffix "00": recipient risk 0. Amount 1000: amount risk 0.1.
	// Score = (0*0.7 + 0.1*0.3) * 100 = 3.
	analysis := a.Analyze("0xsender", "0xrecipient00", 1000)
	if math.Abs(analysis.RiskScore-3.0) > 1e-9 {
		t.Errorf("Expected score 3.0, got %v", analysis.RiskScore)
	}
	if analysis.RiskLevel != LevelLow {
		t.Errorf("Expected low, got %s", analysis.RiskLevel)
	}
	// Low risk with no flags gets the all-clear explanation
	if len(analysis.Explanation) != 1 || analysis.Explanation[0] != "No significant risk factors detected" {
		t.Errorf("Unexpected explanation: %v", analysis.Explanation)
	}
	if analysis.FlaggedFeatures != nil {
		t.Errorf("Expected no flagged features, got %v", analysis.FlaggedFeatures)
	}
}

func TestAnalyzer_LevelBoundaries(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		recipient string
		amount    float64
		want      Level
	}{
		// recipient risk 0.99 (0x63), amount risk 1 → score 99.3 critical
		{"0x63", 20000, LevelCritical},
		// recipient risk 0.99, amount 0 → score 69.3 high
		{"0x63", 0, LevelHigh},
		// recipient risk 0.40 (0x28), amount 0 → score 28 medium
		{"0x28", 0, LevelMedium},
		// recipient risk 0.10 (0x0a), amount 0 → score 7 low
		{"0x0a", 0, LevelLow},
	}

	for _, tc := range tests {
		got := a.Analyze("0xsender", tc.recipient, tc.amount)
		if got.RiskLevel != tc.want {
			t.Errorf("Analyze(%q, %v) level = %s, want %s (score %v)",
				tc.recipient, tc.amount, got.RiskLevel, tc.want, got.RiskScore)
		}
	}
}

func TestAnalyzer_FlaggedFeatures(t *testing.T) {
	a := NewAnalyzer()

	// Large amount and low-reputation recipient (0x63 → 0.99) both flag
	analysis := a.Analyze("0xsender", "0xabc63", 5000)

	if len(analysis.FlaggedFeatures) != 2 {
		t.Fatalf("Expected 2 flagged features, got %d", len(analysis.FlaggedFeatures))
	}

	valueFlag := analysis.FlaggedFeatures[0]
	if valueFlag.Feature != "transaction_value" || valueFlag.Value != 5000 || valueFlag.Threshold != 1000 {
		t.Errorf("Unexpected value flag: %+v", valueFlag)
	}

	repFlag := analysis.FlaggedFeatures[1]
	if repFlag.Feature != "recipient_reputation" || repFlag.Threshold != 50 {
		t.Errorf("Unexpected reputation flag: %+v", repFlag)
	}

	if len(analysis.Explanation) != 2 {
		t.Errorf("Expected 2 explanation entries, got %v", analysis.Explanation)
	}
}

func TestAnalyzer_ScoreCappedAt100(t *testing.T) {
	a := NewAnalyzer()

	analysis := a.Analyze("0xsender", "0x63", 1e9)
	if analysis.RiskScore > 100 {
		t.Errorf("Expected score capped at 100, got %v", analysis.RiskScore)
	}
}
