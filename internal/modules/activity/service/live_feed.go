package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LiveFeed keeps a Feed current: it loads the recent entries once and then
// prepends every insert published afterwards until closed.
type LiveFeed struct {
	feed    *Feed
	stream  *EntryStream
	updates chan Entry
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// StartLiveFeed subscribes before loading so inserts racing the initial load
// are not lost. A failed subscription leaves a static view.
func StartLiveFeed(ctx context.Context, svc ActivityService, log *zap.Logger) *LiveFeed {
	ctx, cancel := context.WithCancel(ctx)
	l := &LiveFeed{
		feed:    NewFeed(svc.FeedSize()),
		updates: make(chan Entry, svc.FeedSize()),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	stream, err := svc.Subscribe(ctx)
	if err != nil {
		log.Warn("activity subscription unavailable, serving static feed", zap.Error(err))
	}
	l.stream = stream

	l.feed.Load(svc.LoadRecent(ctx))

	if stream == nil {
		close(l.done)
		close(l.updates)
		return l
	}
	go l.run(ctx)
	return l
}

func (l *LiveFeed) run(ctx context.Context) {
	defer close(l.done)
	defer close(l.updates)

	for entry := range l.stream.All(ctx) {
		if !l.feed.Push(entry) {
			continue
		}
		select {
		case l.updates <- entry:
		default:
		}
	}
}

func (l *LiveFeed) Entries() []Entry {
	return l.feed.Entries()
}

// TopMovers ranks the feed's entries created since midnight of now's day.
// Entries that have scrolled off the feed no longer count.
func (l *LiveFeed) TopMovers(now time.Time) []Mover {
	return TopMovers(l.feed.Entries(), StartOfDay(now), DefaultTopMovers)
}

// Updates carries entries as they are pushed. Slow readers miss updates but
// Entries stays complete. The channel closes when the feed stops.
func (l *LiveFeed) Updates() <-chan Entry {
	return l.updates
}

func (l *LiveFeed) Done() <-chan struct{} {
	return l.done
}

func (l *LiveFeed) Close() {
	l.once.Do(func() {
		l.cancel()
		if l.stream != nil {
			_ = l.stream.Close()
		}
	})
	<-l.done
}
