package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/garcon-ai/garcon/events"
	"github.com/garcon-ai/garcon/pkg/uuidx"
)

const defaultSlowSubscriberTimeout = 100 * time.Millisecond

type localBroker struct {
	topics                *haxmap.Map[string, *topic]
	slowSubscriberTimeout time.Duration
}

func Local() Broker {
	return &localBroker{
		topics:                haxmap.New[string, *topic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
	}
}

// WithSlowSubscriberTimeout configures how long a publish waits on a
// full subscriber channel before dropping the subscription.
func (b *localBroker) WithSlowSubscriberTimeout(timeout time.Duration) *localBroker {
	b.slowSubscriberTimeout = timeout
	return b
}

func (b *localBroker) Topic(ctx context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *topic {
		return &topic{
			ID:                    id,
			subscriptions:         haxmap.New[string, *subscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
		}
	})
	return top
}

type topic struct {
	ID                    string
	subscriptions         *haxmap.Map[string, *subscription]
	slowSubscriberTimeout time.Duration
}

func (t *topic) Publish(ctx context.Context, event events.Event) error {
	t.subscriptions.ForEach(func(id string, sub *subscription) bool {
		if sub == nil {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			return true
		default:
		}

		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
		case sub.channel <- event:
		case <-time.After(t.slowSubscriberTimeout):
			// channel still full, drop the subscriber
			sub.Unsubscribe()
		}
		return true
	})
	return nil
}

func (t *topic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, fmt.Errorf("hook is required")
	}
	return t.newSubscription(ctx, hook), nil
}

func (t *topic) newSubscription(ctx context.Context, hook events.Hook) *subscription {
	id := uuidx.NewString()
	sub := &subscription{
		id:        id,
		ctx:       ctx,
		channel:   make(chan events.Event, 50),
		closeOnce: sync.Once{},
		onClose:   func() { t.subscriptions.Del(id) },
		hook:      hook,
	}
	t.subscriptions.Set(id, sub)
	go forwardToHook(ctx, sub.channel, hook)
	return sub
}

type subscription struct {
	id        string
	ctx       context.Context
	channel   chan events.Event
	closeOnce sync.Once
	onClose   func()
	hook      events.Hook
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.channel)
	})
}
