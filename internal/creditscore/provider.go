package creditscore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zkredit/vault/internal/retry"
)

// MockProvider derives a deterministic score from the wallet address, so
// development and tests run without an external scoring service. The same
// wallet always gets the same starting score.
type MockProvider struct{}

// NewMockProvider creates a deterministic mock score provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// mockSeedFallback is used when the address suffix is not parseable hex.
const mockSeedFallback = 500

// WalletSeed maps the last 4 hex characters of an address to a number.
// Non-hex suffixes and a zero value fall back to 500.
func WalletSeed(wallet string) int {
	if len(wallet) < 4 {
		return mockSeedFallback
	}
	n, err := strconv.ParseInt(strings.ToLower(wallet[len(wallet)-4:]), 16, 64)
	if err != nil || n == 0 {
		return mockSeedFallback
	}
	return int(n)
}

func (p *MockProvider) Fetch(ctx context.Context, wallet string) (*CreditScore, error) {
	seed := WalletSeed(wallet)
	score := (seed % 300) + 550

	negative := []string{}
	if score < 700 {
		negative = []string{
			"Limited interaction with established protocols",
			"Recent high-value transfers",
			"Transaction volume volatility",
		}
	}

	return &CreditScore{
		Wallet:   wallet,
		Score:    score,
		MaxScore: MaxScore,
		Factors: Factors{
			Positive: []string{
				"Consistent transaction history",
				"Good token diversity",
				"No suspicious activities detected",
				"Wallet age over 180 days",
			},
			Negative: negative,
		},
		LastUpdated: time.Now(),
	}, nil
}

// HTTPProvider fetches scores from an external scoring service via
// GET {base}/credit-score?wallet={address}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider backed by an external service.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// providerResponse tolerates both RFC 3339 timestamps and free-form
// lastUpdated strings from older provider versions.
type providerResponse struct {
	Score       int     `json:"score"`
	MaxScore    int     `json:"maxScore"`
	Factors     Factors `json:"factors"`
	LastUpdated string  `json:"lastUpdated"`
}

// Fetch retries transient failures (network errors, 5xx) with backoff.
// Malformed or out-of-range responses are not retried.
func (p *HTTPProvider) Fetch(ctx context.Context, wallet string) (*CreditScore, error) {
	var score *CreditScore
	err := retry.Do(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		score, err = p.fetchOnce(ctx, wallet)
		return err
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

func (p *HTTPProvider) fetchOnce(ctx context.Context, wallet string) (*CreditScore, error) {
	endpoint := p.baseURL + "/credit-score?wallet=" + url.QueryEscape(wallet)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build credit score request: %w", err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credit score provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("credit score provider returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrInvalidScore, err))
	}

	score := &CreditScore{
		Wallet:      wallet,
		Score:       body.Score,
		MaxScore:    body.MaxScore,
		Factors:     body.Factors,
		LastUpdated: time.Now(),
	}
	if ts, err := time.Parse(time.RFC3339, body.LastUpdated); err == nil {
		score.LastUpdated = ts
	}

	if err := score.Validate(); err != nil {
		return nil, retry.Permanent(err)
	}

	return score, nil
}
