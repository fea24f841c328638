package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Collector buffers the events raised while serving one request.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Notify(_ context.Context, e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the buffered events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Notices returns the buffered events in response shape.
func (c *Collector) Notices() []types.Notice {
	events := c.Events()
	if len(events) == 0 {
		return nil
	}
	out := make([]types.Notice, 0, len(events))
	for _, e := range events {
		out = append(out, e.Notice())
	}
	return out
}

// LogSubscriber writes every event to the structured log; errors log at warn level.
func LogSubscriber(logg *logger.Logger) Subscriber {
	return SubscriberFunc(func(ctx context.Context, e Event) {
		fields := map[string]any{
			"notice_kind":  string(e.Kind),
			"notice_level": string(e.Level),
		}
		for k, v := range e.Data {
			fields[k] = v
		}
		ctx = logg.WithFields(ctx, fields)
		if e.Level == enums.NoticeError {
			logg.Warn(ctx, e.Message)
			return
		}
		logg.Debug(ctx, e.Message)
	})
}

// NoticeCounter counts events by kind and level.
type NoticeCounter interface {
	IncNotice(kind, level string)
}

func MetricsSubscriber(counter NoticeCounter) Subscriber {
	return SubscriberFunc(func(_ context.Context, e Event) {
		counter.IncNotice(string(e.Kind), string(e.Level))
	})
}
