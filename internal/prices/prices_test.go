package prices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkredit/vault/internal/events"
)

const marketsBody = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":72971.65,"price_change_percentage_24h":0.8,"last_updated":"2026-03-01T12:00:00Z"},
	{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2490.78,"price_change_percentage_24h":1.1,"last_updated":"2026-03-01T12:00:00Z"}
]`

func marketsServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, marketsBody)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuotes_FetchAndCache(t *testing.T) {
	var hits atomic.Int64
	srv := marketsServer(t, &hits)

	o := NewOracle(srv.URL, time.Minute)
	ctx := context.Background()

	quotes := o.Quotes(ctx)
	require.Contains(t, quotes, "bitcoin")
	require.Contains(t, quotes, "ethereum")
	assert.Equal(t, 72971.65, quotes["bitcoin"].Price)
	assert.Equal(t, "BTC", quotes["bitcoin"].Symbol)

	// second call within TTL is served from cache
	o.Quotes(ctx)
	assert.Equal(t, int64(1), hits.Load())
}

func TestQuotes_StaleCacheOnError(t *testing.T) {
	var hits atomic.Int64
	srv := marketsServer(t, &hits)

	o := NewOracle(srv.URL, time.Nanosecond) // every call is stale
	ctx := context.Background()

	first := o.Quotes(ctx)
	require.Equal(t, 72971.65, first["bitcoin"].Price)

	srv.Close() // API goes away

	second := o.Quotes(ctx)
	assert.Equal(t, 72971.65, second["bitcoin"].Price)
}

func TestQuotes_FallbackWithEmptyCache(t *testing.T) {
	o := NewOracle("http://127.0.0.1:1", time.Minute) // unreachable

	quotes := o.Quotes(context.Background())
	require.Contains(t, quotes, "bitcoin")
	assert.Equal(t, 61199.33, quotes["bitcoin"].Price)
	assert.Equal(t, 2013.75, quotes["ethereum"].Price)
}

func TestPrice_SymbolMapping(t *testing.T) {
	var hits atomic.Int64
	srv := marketsServer(t, &hits)
	o := NewOracle(srv.URL, time.Minute)

	assert.Equal(t, 72971.65, o.Price(context.Background(), "BTC"))
	assert.Equal(t, 2490.78, o.Price(context.Background(), "eth"))
}

func TestCoinID(t *testing.T) {
	assert.Equal(t, "bitcoin", CoinID("BTC"))
	assert.Equal(t, "ethereum", CoinID("eth"))
	assert.Equal(t, "solana", CoinID("Solana"))
}

func TestPoller_PublishesQuotes(t *testing.T) {
	var hits atomic.Int64
	srv := marketsServer(t, &hits)
	o := NewOracle(srv.URL, time.Minute)

	bus := events.NewBus(nil)
	defer bus.Close()
	ch, cancel := bus.Subscribe(events.TopicPriceUpdated)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go NewPoller(o, bus, time.Hour, nil, nil).Run(ctx)

	select {
	case ev := <-ch:
		quotes, ok := ev.Payload.(map[string]*Quote)
		require.True(t, ok)
		assert.Contains(t, quotes, "bitcoin")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a price.updated event")
	}
}

func TestGetPricesEndpoint(t *testing.T) {
	var hits atomic.Int64
	srv := marketsServer(t, &hits)
	o := NewOracle(srv.URL, time.Minute)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(o).RegisterRoutes(r.Group("/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/prices?ids=bitcoin,ethereum", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bitcoin"`)
	assert.Contains(t, w.Body.String(), "72971.65")
}

func TestQuotes_BreakerStopsHammeringDeadAPI(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	o := NewOracle(srv.URL, time.Nanosecond)

	// Three failures trip the breaker.
	for i := 0; i < 3; i++ {
		o.Quotes(context.Background(), "bitcoin")
	}
	tripped := hits.Load()
	assert.Equal(t, int64(3), tripped)

	// Further lookups serve the fallback without touching the API.
	quotes := o.Quotes(context.Background(), "bitcoin")
	assert.Equal(t, 61199.33, quotes["bitcoin"].Price)
	assert.Equal(t, tripped, hits.Load())
}
