package alerts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkredit/vault/internal/events"
	"github.com/zkredit/vault/internal/prices"
)

func priceServer(t *testing.T, btcPrice float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":%f,"price_change_percentage_24h":0.5,"last_updated":"2026-03-01T12:00:00Z"}]`, btcPrice)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEvaluate_FiresAndDeactivatesOnce(t *testing.T) {
	srv := priceServer(t, 95000)
	oracle := prices.NewOracle(srv.URL, time.Minute)

	bus := events.NewBus(nil)
	defer bus.Close()
	ch, cancel := bus.Subscribe(events.TopicPriceAlertTriggered)
	defer cancel()

	store := NewMemoryStore()
	alert := makeAlert(AlertAbove, "90000", FrequencyOnce)
	require.NoError(t, store.Create(context.Background(), alert))

	w := NewWatcher(store, oracle, bus, time.Hour, nil)
	fired := w.Evaluate(context.Background())
	assert.Equal(t, 1, fired)

	select {
	case ev := <-ch:
		payload, ok := ev.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, 95000.0, payload["price"])
	case <-time.After(time.Second):
		t.Fatal("expected a pricealert.triggered event")
	}

	// once-frequency alerts deactivate after firing
	stored, err := store.Get(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.LastFiredAt)

	assert.Equal(t, 0, w.Evaluate(context.Background()))
}

func TestEvaluate_AlwaysKeepsFiring(t *testing.T) {
	srv := priceServer(t, 95000)
	oracle := prices.NewOracle(srv.URL, time.Minute)

	store := NewMemoryStore()
	alert := makeAlert(AlertAbove, "90000", FrequencyAlways)
	require.NoError(t, store.Create(context.Background(), alert))

	w := NewWatcher(store, oracle, nil, time.Hour, nil)
	assert.Equal(t, 1, w.Evaluate(context.Background()))
	assert.Equal(t, 1, w.Evaluate(context.Background()))

	stored, err := store.Get(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}

func TestEvaluate_NoFireBelowTarget(t *testing.T) {
	srv := priceServer(t, 85000)
	oracle := prices.NewOracle(srv.URL, time.Minute)

	store := NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), makeAlert(AlertAbove, "90000", FrequencyOnce)))

	w := NewWatcher(store, oracle, nil, time.Hour, nil)
	assert.Equal(t, 0, w.Evaluate(context.Background()))
}
