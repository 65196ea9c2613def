package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync"

	"anoa.com/skillquest/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActivityInsertsChannel = "activities:inserts"

	defaultBuffer = 64
)

var ErrSubscriptionClosed = errors.New("subscription closed")

func ProfileChannel(userID uuid.UUID) string {
	return fmt.Sprintf("profiles:%s", userID)
}

func NotificationChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

type Message struct {
	Channel string
	Payload []byte
}

// Broker fans messages out to every live subscriber of a channel.
// Delivery is at-most-once: a subscriber whose buffer is full misses the message.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
}

// PublishJSON marshals v and publishes it on channel.
func PublishJSON(ctx context.Context, b Broker, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", channel, err)
	}
	return b.Publish(ctx, channel, payload)
}

// Subscription is a lazy, non-restartable sequence of messages on one channel.
// Close detaches it from the broker; messages already buffered stay readable
// until drained.
type Subscription struct {
	channel string
	out     chan Message
	done    chan struct{}
	detach  func()

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func newSubscription(channel string, buffer int, detach func()) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Subscription{
		channel: channel,
		out:     make(chan Message, buffer),
		done:    make(chan struct{}),
		detach:  detach,
	}
}

// closeOn closes s once ctx is done. Call it after s is registered with its source.
func (s *Subscription) closeOn(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
}

func (s *Subscription) Channel() string {
	return s.channel
}

// deliver never blocks. It reports false when the message was dropped.
func (s *Subscription) deliver(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.out <- msg:
		return true
	default:
		metrics.RealtimeDropped.WithLabelValues(channelKind(s.channel)).Inc()
		return false
	}
}

// C exposes the receive side. It is closed once the subscription is closed and drained.
func (s *Subscription) C() <-chan Message {
	return s.out
}

// Next blocks until a message arrives, ctx is done, or the subscription is
// closed and drained.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg, ok := <-s.out:
		if !ok {
			return Message{}, ErrSubscriptionClosed
		}
		return msg, nil
	}
}

func (s *Subscription) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for msg := range s.out {
			if !yield(msg) {
				return
			}
		}
	}
}

func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.detach != nil {
			s.detach()
		}
		s.mu.Lock()
		s.closed = true
		close(s.out)
		s.mu.Unlock()
	})
	return nil
}

// Stream is a typed JSON view over a Subscription. Payloads that do not
// decode into T are logged and skipped.
type Stream[T any] struct {
	sub *Subscription
}

func Watch[T any](ctx context.Context, b Broker, channel string) (*Stream[T], error) {
	sub, err := b.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return &Stream[T]{sub: sub}, nil
}

func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	for {
		msg, err := s.sub.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if v, ok := decode[T](msg); ok {
			return v, nil
		}
	}
}

func (s *Stream[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for msg := range s.sub.All() {
			v, ok := decode[T](msg)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

func (s *Stream[T]) Close() error {
	return s.sub.Close()
}

func decode[T any](msg Message) (T, bool) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		zap.L().Warn("skipping undecodable realtime payload",
			zap.String("channel", msg.Channel),
			zap.Error(err),
		)
		return v, false
	}
	return v, true
}

// channelKind strips the per-user suffix so metric labels stay bounded.
func channelKind(channel string) string {
	for i := 0; i < len(channel); i++ {
		if channel[i] == ':' {
			return channel[:i]
		}
	}
	return channel
}
