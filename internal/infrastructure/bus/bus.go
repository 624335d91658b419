package bus

import (
	"context"
	"predictive-search/internal/domain"
	"predictive-search/pkg/logger"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscription struct {
	id      uint64
	handler func(domain.Event)
}

// Bus is an in-process publish/subscribe channel shared by the widgets of
// one page. Handlers run synchronously on the publisher's goroutine, in
// subscription order, and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.Topic][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[domain.Topic][]subscription)}
}

// Publish stamps the event with an id and time when missing and delivers it.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Topic]...)
	b.mu.RUnlock()

	logger.WithContext(ctx).Debug().
		Str("event_id", event.ID).
		Str("topic", string(event.Topic)).
		Str("source", event.Source).
		Int("subscribers", len(subs)).
		Msg("Bus publish")

	for _, s := range subs {
		s.handler(event)
	}
}

func (b *Bus) Subscribe(topic domain.Topic, handler func(domain.Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[topic]
			for i, s := range subs {
				if s.id == id {
					b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}
