package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Event is a change or user-visible signal raised by a core component.
type Event struct {
	Kind    enums.NoticeKind
	Level   enums.NoticeLevel
	Message string
	Data    map[string]any
}

// Notice converts the event into its response shape.
func (e Event) Notice() types.Notice {
	return types.Notice{
		Kind:    string(e.Kind),
		Level:   string(e.Level),
		Message: e.Message,
		Data:    e.Data,
	}
}

type Subscriber interface {
	Notify(ctx context.Context, e Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, e Event)

func (f SubscriberFunc) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}

// Publisher is the side of the bus core components depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id  int
	sub Subscriber
}

func NewBus(subs ...Subscriber) *Bus {
	b := &Bus{}
	for _, s := range subs {
		b.Subscribe(s)
	}
	return b
}

// Subscribe registers s and returns a function that removes it.
func (b *Bus) Subscribe(s Subscriber) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, sub: s})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, existing := range b.subs {
			if existing.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.sub.Notify(ctx, e)
	}
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
