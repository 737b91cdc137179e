package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub_DeliversToSubscriber(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "group:1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "group:1", "hello"))

	select {
	case msg := <-ch:
		assert.Equal(t, "group:1", msg.Channel)
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected message")
	}
}

func TestPubSub_ChannelFilter(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "group:1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "group:2", "not for you"))

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_MultipleSubscribers(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch1, cancel1, _ := ps.Subscribe(ctx, "events")
	defer cancel1()
	ch2, cancel2, _ := ps.Subscribe(ctx, "events")
	defer cancel2()

	require.NoError(t, ps.Publish(ctx, "events", "fanout"))

	for _, ch := range []<-chan *PubSubMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal(t, "fanout", msg.Payload)
		case <-time.After(time.Second):
			t.Fatal("expected message")
		}
	}
}

func TestPubSub_SlowSubscriberDrops(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()

	_, cancel, _ := ps.Subscribe(ctx, "busy")
	defer cancel()

	// Buffer size 1: the second publish is dropped, never blocking.
	done := make(chan struct{})
	go func() {
		_ = ps.Publish(ctx, "busy", "one")
		_ = ps.Publish(ctx, "busy", "two")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestPubSub_CancelStopsDelivery(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, _ := ps.Subscribe(ctx, "events")
	cancel()
	// Cancel twice is safe.
	cancel()

	require.NoError(t, ps.Publish(ctx, "events", "late"))

	// The channel is closed after cancel.
	_, open := <-ch
	assert.False(t, open)
}
