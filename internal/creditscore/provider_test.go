package creditscore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletSeed(t *testing.T) {
	tests := []struct {
		wallet string
		want   int
	}{
		{"0x71C7656EC7ab88b098defB751B7401B5f6d8976F", 0x976f},
		{"0xABCD1234", 0x1234},
		{"0xdef0000", 0},          // zero suffix falls back
		{"0xZZZZ", 0},             // non-hex suffix falls back
		{"0x1", 0},                // too short
		{"0xffff", 0xffff},
	}
	for _, tt := range tests {
		got := WalletSeed(tt.wallet)
		if tt.want == 0 {
			assert.Equal(t, mockSeedFallback, got, "wallet %s", tt.wallet)
		} else {
			assert.Equal(t, tt.want, got, "wallet %s", tt.wallet)
		}
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider()

	a, err := p.Fetch(context.Background(), "0xABCD1234")
	require.NoError(t, err)
	b, err := p.Fetch(context.Background(), "0xABCD1234")
	require.NoError(t, err)

	assert.Equal(t, a.Score, b.Score)
	assert.GreaterOrEqual(t, a.Score, 550)
	assert.LessOrEqual(t, a.Score, 849)
	assert.Equal(t, MaxScore, a.MaxScore)
	assert.NoError(t, a.Validate())
}

func TestMockProvider_NegativeFactorsBelow700(t *testing.T) {
	p := NewMockProvider()

	// seed 0x0064 = 100 → score 650
	low, err := p.Fetch(context.Background(), "0x0064")
	require.NoError(t, err)
	assert.Equal(t, 650, low.Score)
	assert.NotEmpty(t, low.Factors.Negative)

	// seed 0x00fa = 250 → score 800
	high, err := p.Fetch(context.Background(), "0x00fa")
	require.NoError(t, err)
	assert.Equal(t, 800, high.Score)
	assert.Empty(t, high.Factors.Negative)
	assert.NotEmpty(t, high.Factors.Positive)
}

func TestHTTPProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/credit-score", r.URL.Path)
		assert.Equal(t, "0xwallet1234", r.URL.Query().Get("wallet"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"score": 720,
			"maxScore": 850,
			"factors": {"positive": ["Good token diversity"], "negative": []},
			"lastUpdated": %q
		}`, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	score, err := p.Fetch(context.Background(), "0xwallet1234")
	require.NoError(t, err)

	assert.Equal(t, 720, score.Score)
	assert.Equal(t, "0xwallet1234", score.Wallet)
	assert.Equal(t, []string{"Good token diversity"}, score.Factors.Positive)
	assert.Equal(t, 2026, score.LastUpdated.Year())
}

func TestHTTPProvider_BadTimestampTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"score": 700, "maxScore": 850, "factors": {"positive": [], "negative": []}, "lastUpdated": "yesterday"}`)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	score, err := p.Fetch(context.Background(), "0xwallet1234")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), score.LastUpdated, time.Minute)
}

func TestHTTPProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Fetch(context.Background(), "0xwallet1234")
	assert.Error(t, err)
}

func TestHTTPProvider_OutOfBandScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"score": 9000, "maxScore": 850, "factors": {"positive": [], "negative": []}}`)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Fetch(context.Background(), "0xwallet1234")
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestHTTPProvider_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"score": 700, "maxScore": 850, "factors": {"positive": [], "negative": []}}`)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	score, err := p.Fetch(context.Background(), "0xwallet1234")
	require.NoError(t, err)
	assert.Equal(t, 700, score.Score)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProvider_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Fetch(context.Background(), "0xwallet1234")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
