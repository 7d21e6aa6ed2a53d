// Package events provides an in-process publish/subscribe bus.
//
// Components that react to wallet activity (the realtime hub, the price
// alert watcher, dashboards) subscribe to topics instead of reaching into
// each other. Delivery is asynchronous and best-effort: a subscriber that
// cannot keep up loses events rather than blocking the publisher.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Topic identifies a class of events.
type Topic string

const (
	TopicTransactionProcessed Topic = "transaction.processed"
	TopicCreditScoreUpdated   Topic = "creditscore.updated"
	TopicPriceAlertTriggered  Topic = "pricealert.triggered"
	TopicPriceUpdated         Topic = "price.updated"
)

// Event is a published message with its topic and payload.
type Event struct {
	Topic     Topic       `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DefaultBuffer is the per-subscriber channel buffer size.
const DefaultBuffer = 64

type subscriber struct {
	ch     chan Event
	topics map[Topic]bool // empty means all topics
}

// Bus fans events out to subscribers by topic.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*subscriber]bool
	closed bool
	logger *slog.Logger

	dropped atomic.Int64
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[*subscriber]bool),
		logger: logger,
	}
}

// Subscribe registers interest in the given topics. No topics means all.
// The returned cancel function removes the subscription and closes the
// channel; it is safe to call more than once.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Event, func()) {
	sub := &subscriber{
		ch:     make(chan Event, DefaultBuffer),
		topics: make(map[Topic]bool, len(topics)),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subs[sub] = true
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if b.subs[sub] {
				delete(b.subs, sub)
				close(sub.ch)
			}
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to all matching subscribers without blocking.
// Events to full subscriber buffers are dropped.
func (b *Bus) Publish(topic Topic, payload interface{}) {
	event := Event{
		Topic:     topic,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for sub := range b.subs {
		if len(sub.topics) > 0 && !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			b.logger.Warn("event dropped, subscriber buffer full", "topic", topic)
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many events have been dropped on full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
