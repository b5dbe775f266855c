package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fature/cpa-engine/internal/domain"
)

func TestChannelBus(t *testing.T) {
	ctx := context.Background()

	t.Run("PublishAndSubscribe", func(t *testing.T) {
		bus := NewChannelBus(100)
		defer bus.Close()

		var receivedMsg *domain.Message
		var wg sync.WaitGroup
		wg.Add(1)

		_, err := bus.Subscribe(ctx, domain.TopicValidationCompleted, func(ctx context.Context, msg *domain.Message) error {
			receivedMsg = msg
			wg.Done()
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		if err := bus.Publish(ctx, domain.TopicValidationCompleted, []byte("hello")); err != nil {
			t.Fatalf("publish failed: %v", err)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}

		if string(receivedMsg.Payload) != "hello" {
			t.Errorf("expected payload 'hello', got '%s'", string(receivedMsg.Payload))
		}
		if receivedMsg.Topic != domain.TopicValidationCompleted {
			t.Errorf("unexpected topic: %s", receivedMsg.Topic)
		}
		if receivedMsg.ID == "" {
			t.Error("expected a message ID")
		}
	})

	t.Run("TopicIsolation", func(t *testing.T) {
		bus := NewChannelBus(100)
		defer bus.Close()

		var completed, flagged atomic.Int32

		bus.Subscribe(ctx, domain.TopicValidationCompleted, func(ctx context.Context, msg *domain.Message) error {
			completed.Add(1)
			return nil
		})
		bus.Subscribe(ctx, domain.TopicFraudFlagged, func(ctx context.Context, msg *domain.Message) error {
			flagged.Add(1)
			return nil
		})

		bus.Publish(ctx, domain.TopicValidationCompleted, []byte("a"))
		bus.Publish(ctx, domain.TopicValidationCompleted, []byte("b"))

		time.Sleep(50 * time.Millisecond)

		if completed.Load() != 2 {
			t.Errorf("expected 2 completed messages, got %d", completed.Load())
		}
		if flagged.Load() != 0 {
			t.Errorf("expected 0 flagged messages, got %d", flagged.Load())
		}
	})

	t.Run("UnsubscribeStopsDelivery", func(t *testing.T) {
		bus := NewChannelBus(100)
		defer bus.Close()

		var count atomic.Int32
		sub, err := bus.Subscribe(ctx, "test.topic", func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}

		bus.Publish(ctx, "test.topic", []byte("one"))
		time.Sleep(50 * time.Millisecond)

		sub.Unsubscribe()
		time.Sleep(10 * time.Millisecond)

		bus.Publish(ctx, "test.topic", []byte("two"))
		time.Sleep(50 * time.Millisecond)

		if count.Load() != 1 {
			t.Errorf("expected 1 delivery, got %d", count.Load())
		}
	})

	t.Run("ClosedBusRejectsOperations", func(t *testing.T) {
		bus := NewChannelBus(100)
		bus.Close()

		if err := bus.Publish(ctx, "t", []byte("x")); err == nil {
			t.Error("publish on closed bus must fail")
		}
		if _, err := bus.Subscribe(ctx, "t", nil); err == nil {
			t.Error("subscribe on closed bus must fail")
		}
		if err := bus.Ping(ctx); err == nil {
			t.Error("ping on closed bus must fail")
		}
		// Double close is a no-op.
		if err := bus.Close(); err != nil {
			t.Errorf("double close: %v", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		bus := NewChannelBus(100)
		defer bus.Close()

		if err := bus.Ping(ctx); err != nil {
			t.Errorf("unexpected ping error: %v", err)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("DefaultsToChannel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer b.Close()

		if _, ok := b.(*ChannelBus); !ok {
			t.Errorf("expected ChannelBus, got %T", b)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unknown bus type")
		}
	})
}
