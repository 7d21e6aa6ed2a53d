package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/zkredit/vault/internal/events"
	"github.com/zkredit/vault/internal/metrics"
	"github.com/zkredit/vault/internal/prices"
)

// Watcher evaluates active alerts against fresh quotes on a fixed
// interval and publishes an event for every alert that fires. Alerts with
// frequency once deactivate after their first firing.
type Watcher struct {
	store    Store
	oracle   *prices.Oracle
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a price alert watcher.
func NewWatcher(store Store, oracle *prices.Oracle, bus *events.Bus, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    store,
		oracle:   oracle,
		bus:      bus,
		interval: interval,
		logger:   logger,
	}
}

// Run evaluates alerts until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Evaluate(ctx)
		}
	}
}

// Evaluate runs one evaluation pass and returns the number of alerts that
// fired.
func (w *Watcher) Evaluate(ctx context.Context) int {
	active, err := w.store.ListActive(ctx)
	if err != nil {
		w.logger.Error("failed to list active price alerts", "error", err)
		return 0
	}
	if len(active) == 0 {
		return 0
	}

	now := time.Now()
	fired := 0
	for _, alert := range active {
		price := w.oracle.Price(ctx, alert.CryptoSymbol)
		if !alert.ShouldFire(price, now) {
			continue
		}

		stillActive := alert.Frequency != FrequencyOnce
		if err := w.store.MarkFired(ctx, alert.ID, now, stillActive); err != nil {
			w.logger.Error("failed to mark price alert fired", "id", alert.ID, "error", err)
			continue
		}

		metrics.PriceAlertsTriggeredTotal.WithLabelValues(alert.CryptoSymbol).Inc()
		if w.bus != nil {
			w.bus.Publish(events.TopicPriceAlertTriggered, map[string]interface{}{
				"alert": alert,
				"price": price,
			})
		}

		w.logger.Info("price alert fired",
			"id", alert.ID, "symbol", alert.CryptoSymbol,
			"price", price, "target", alert.Price, "type", alert.AlertType)
		fired++
	}
	return fired
}
