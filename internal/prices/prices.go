// Package prices fetches spot cryptocurrency prices with a short cache.
//
// Quotes come from the CoinGecko markets API. Results are cached for a
// TTL; on API failure the oracle degrades to the last cached quotes, and
// with an empty cache it serves fixed fallback quotes. The dashboard would
// rather show a slightly stale price than no price.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/zkredit/vault/internal/circuitbreaker"
	"github.com/zkredit/vault/internal/metrics"
)

// DefaultTTL is how long fetched quotes stay fresh.
const DefaultTTL = 60 * time.Second

// Quote is a single asset's market snapshot.
type Quote struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Change24h   float64   `json:"price_change_percentage_24h"`
	LastUpdated time.Time `json:"last_updated"`
}

// fallbackQuotes are served when the API fails and nothing is cached.
func fallbackQuotes() map[string]*Quote {
	now := time.Now()
	return map[string]*Quote{
		"bitcoin": {
			ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin",
			Price: 61199.33, Change24h: 0.5, LastUpdated: now,
		},
		"ethereum": {
			ID: "ethereum", Symbol: "ETH", Name: "Ethereum",
			Price: 2013.75, Change24h: 1.3, LastUpdated: now,
		},
	}
}

// breakerKey identifies the upstream price API in the circuit breaker.
const breakerKey = "price_api"

// Oracle fetches and caches quotes by CoinGecko asset ID.
type Oracle struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration
	breaker *circuitbreaker.Breaker

	mu        sync.RWMutex
	cache     map[string]*Quote
	fetchedAt time.Time
}

// NewOracle creates a price oracle against the given API base URL
// (e.g. "https://api.coingecko.com/api/v3").
func NewOracle(baseURL string, ttl time.Duration) *Oracle {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Oracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuitbreaker.New(3, 30*time.Second),
		cache:   make(map[string]*Quote),
	}
}

// CoinID maps a token symbol to its CoinGecko asset ID.
func CoinID(symbol string) string {
	switch strings.ToLower(symbol) {
	case "btc":
		return "bitcoin"
	case "eth":
		return "ethereum"
	default:
		return strings.ToLower(symbol)
	}
}

// Quotes returns quotes for the given asset IDs, from cache when fresh.
// Never returns an error for the default assets; degradation order is
// fresh cache, live fetch, stale cache, fixed fallback.
func (o *Oracle) Quotes(ctx context.Context, ids ...string) map[string]*Quote {
	if len(ids) == 0 {
		ids = []string{"bitcoin", "ethereum"}
	}

	o.mu.RLock()
	if time.Since(o.fetchedAt) < o.ttl && o.covers(ids) {
		quotes := o.snapshot()
		o.mu.RUnlock()
		metrics.PriceFetchesTotal.WithLabelValues("cached").Inc()
		return quotes
	}
	o.mu.RUnlock()

	if o.breaker.Allow(breakerKey) {
		fetched, err := o.fetch(ctx, ids)
		if err == nil {
			o.breaker.RecordSuccess(breakerKey)
			o.mu.Lock()
			o.cache = fetched
			o.fetchedAt = time.Now()
			quotes := o.snapshot()
			o.mu.Unlock()
			metrics.PriceFetchesTotal.WithLabelValues("ok").Inc()
			return quotes
		}
		o.breaker.RecordFailure(breakerKey)
	}

	metrics.PriceFetchesTotal.WithLabelValues("error").Inc()

	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.cache) > 0 {
		return o.snapshot()
	}
	return fallbackQuotes()
}

// Price returns the USD price for a token symbol, 0 for unknown assets
// outside the fallback set.
func (o *Oracle) Price(ctx context.Context, symbol string) float64 {
	id := CoinID(symbol)
	quotes := o.Quotes(ctx, id)
	if q, ok := quotes[id]; ok {
		return q.Price
	}
	return 0
}

// covers reports whether every requested ID is cached. Caller holds a lock.
func (o *Oracle) covers(ids []string) bool {
	for _, id := range ids {
		if _, ok := o.cache[id]; !ok {
			return false
		}
	}
	return true
}

// snapshot copies the cache. Caller holds a lock.
func (o *Oracle) snapshot() map[string]*Quote {
	quotes := make(map[string]*Quote, len(o.cache))
	for id, q := range o.cache {
		cp := *q
		quotes[id] = &cp
	}
	return quotes
}

// marketEntry is one element of the CoinGecko markets response.
type marketEntry struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Price       float64 `json:"current_price"`
	Change24h   float64 `json:"price_change_percentage_24h"`
	LastUpdated string  `json:"last_updated"`
}

func (o *Oracle) fetch(ctx context.Context, ids []string) (map[string]*Quote, error) {
	endpoint := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=100&page=1&sparkline=false&price_change_percentage=24h",
		o.baseURL, url.QueryEscape(strings.Join(ids, ",")),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var entries []marketEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	quotes := make(map[string]*Quote, len(entries))
	for _, e := range entries {
		q := &Quote{
			ID:          e.ID,
			Symbol:      strings.ToUpper(e.Symbol),
			Name:        e.Name,
			Price:       e.Price,
			Change24h:   e.Change24h,
			LastUpdated: time.Now(),
		}
		if ts, err := time.Parse(time.RFC3339, e.LastUpdated); err == nil {
			q.LastUpdated = ts
		}
		quotes[e.ID] = q
	}
	return quotes, nil
}
