package prices

import (
	"context"
	"log/slog"
	"time"

	"github.com/zkredit/vault/internal/events"
)

// Poller refreshes quotes on a fixed interval and publishes each batch so
// the realtime hub and the alert watcher see new prices without polling
// the API themselves.
type Poller struct {
	oracle   *Oracle
	bus      *events.Bus
	interval time.Duration
	ids      []string
	logger   *slog.Logger
}

// NewPoller creates a price poller for the given asset IDs.
func NewPoller(oracle *Oracle, bus *events.Bus, interval time.Duration, ids []string, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if len(ids) == 0 {
		ids = []string{"bitcoin", "ethereum"}
	}
	return &Poller{
		oracle:   oracle,
		bus:      bus,
		interval: interval,
		ids:      ids,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	quotes := p.oracle.Quotes(ctx, p.ids...)

	if p.bus != nil {
		p.bus.Publish(events.TopicPriceUpdated, quotes)
	}
	p.logger.Debug("prices refreshed", "assets", len(quotes))
}
