package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_DeliversToChannelSubscribersOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBroker(4)

	a, err := b.Subscribe(ctx, "a")
	require.NoError(t, err)
	defer a.Close()
	other, err := b.Subscribe(ctx, "b")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, b.Publish(ctx, "a", []byte(`1`)))

	msg, err := a.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", msg.Channel)
	assert.Equal(t, []byte(`1`), msg.Payload)

	select {
	case m := <-other.C():
		t.Fatalf("unexpected message on b: %s", m.Payload)
	default:
	}
}

func TestMemoryBroker_SlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBroker(2)

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)

	for _, p := range []string{"1", "2", "3", "4"} {
		require.NoError(t, b.Publish(ctx, "c", []byte(p)))
	}
	require.NoError(t, sub.Close())

	var got []string
	for msg := range sub.All() {
		got = append(got, string(msg.Payload))
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestSubscription_CloseKeepsBufferedMessages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBroker(8)

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "c", []byte("before")))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close is idempotent")
	assert.Zero(t, b.Subscribers("c"))

	require.NoError(t, b.Publish(ctx, "c", []byte("after")))

	msg, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "before", string(msg.Payload))

	_, err = sub.Next(ctx)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestSubscription_ClosesWhenContextEnds(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	b := NewMemoryBroker(1)

	sub, err := b.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool { return b.Subscribers("c") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestWatch_SkipsUndecodablePayloads(t *testing.T) {
	t.Parallel()
	type point struct {
		X int `json:"x"`
	}
	ctx := context.Background()
	b := NewMemoryBroker(8)

	stream, err := Watch[point](ctx, b, "points")
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, b.Publish(ctx, "points", []byte("not json")))
	require.NoError(t, PublishJSON(ctx, b, "points", point{X: 7}))

	nextCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	got, err := stream.Next(nextCtx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.X)
}

func TestChannelKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"profiles:123", "profiles"},
		{ActivityInsertsChannel, "activities"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, channelKind(tt.in))
	}
}
