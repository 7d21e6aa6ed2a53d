package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	ch, cancel := b.Subscribe(TopicTransactionProcessed)
	defer cancel()

	b.Publish(TopicTransactionProcessed, map[string]interface{}{"id": "tx1"})

	select {
	case e := <-ch:
		if e.Topic != TopicTransactionProcessed {
			t.Errorf("Expected topic %s, got %s", TopicTransactionProcessed, e.Topic)
		}
		payload := e.Payload.(map[string]interface{})
		if payload["id"] != "tx1" {
			t.Errorf("Unexpected payload: %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestBus_TopicFilter(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	ch, cancel := b.Subscribe(TopicPriceAlertTriggered)
	defer cancel()

	b.Publish(TopicTransactionProcessed, "tx")
	b.Publish(TopicPriceAlertTriggered, "alert")

	select {
	case e := <-ch:
		if e.Topic != TopicPriceAlertTriggered {
			t.Errorf("Expected only price alert events, got %s", e.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case e := <-ch:
		t.Errorf("Unexpected second event: %v", e.Topic)
	default:
	}
}

func TestBus_AllTopics(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	// No topics means all
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(TopicTransactionProcessed, nil)
	b.Publish(TopicCreditScoreUpdated, nil)

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for event %d", i)
		}
	}
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	_, cancel := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", b.SubscriberCount())
	}

	cancel()
	if b.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after cancel, got %d", b.SubscriberCount())
	}

	// Double cancel is a no-op
	cancel()
}

func TestBus_FullBufferDrops(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	_, cancel := b.Subscribe(TopicPriceUpdated)
	defer cancel()

	// Nobody reading; overflow the buffer
	for i := 0; i < DefaultBuffer+5; i++ {
		b.Publish(TopicPriceUpdated, i)
	}

	if b.Dropped() != 5 {
		t.Errorf("Expected 5 dropped events, got %d", b.Dropped())
	}
}

func TestBus_CloseClosesChannels(t *testing.T) {
	b := NewBus(nil)

	ch, _ := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for channel close")
	}

	// Publish after close is a no-op
	b.Publish(TopicTransactionProcessed, nil)

	// Subscribe after close returns a closed channel
	ch2, cancel := b.Subscribe()
	cancel()
	if _, ok := <-ch2; ok {
		t.Error("Expected closed channel from post-close subscribe")
	}
}
