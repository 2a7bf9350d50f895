package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/events"
)

func receiveOne[T any](t *testing.T, sub events.Subscriber[T]) T {
	t.Helper()
	select {
	case msg := <-sub.Receive(context.Background()):
		return msg.Data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero
	}
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("fans out to all subscribers", func(t *testing.T) {
		t.Parallel()

		b := events.NewMemoryBroadcaster[string](4)
		t.Cleanup(func() { _ = b.Close() })

		ctx := context.Background()
		first := b.Subscribe(ctx)
		second := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, events.Message[string]{Data: "hello"}))

		assert.Equal(t, "hello", receiveOne(t, first))
		assert.Equal(t, "hello", receiveOne(t, second))
	})

	t.Run("drops instead of blocking on a full subscriber", func(t *testing.T) {
		t.Parallel()

		b := events.NewMemoryBroadcaster[int](1)
		t.Cleanup(func() { _ = b.Close() })

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := range 10 {
				_ = b.Broadcast(ctx, events.Message[int]{Data: i})
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("broadcast blocked on a slow subscriber")
		}
		assert.Equal(t, 0, receiveOne(t, sub))
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		t.Parallel()

		b := events.NewMemoryBroadcaster[string](1)
		t.Cleanup(func() { _ = b.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		assert.Eventually(t, func() bool {
			select {
			case _, open := <-sub.Receive(context.Background()):
				return !open
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})
}
