package events

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Listener receives published events.
type Listener func(domain.Event)

// Token identifies a subscription. The zero Token is never issued.
type Token uint64

type subscription struct {
	token     Token
	eventType domain.EventType
	listener  Listener
}

// Bus is a synchronous pub-sub event bus.
// Listeners run on the publisher's goroutine in subscription order.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[domain.EventType][]subscription
	nextID        atomic.Uint64

	logger  *slog.Logger
	onPanic func(domain.EventType, any)
	now     func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report listener panics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPanicHandler is called after a listener panic has been recovered.
func WithPanicHandler(fn func(domain.EventType, any)) Option {
	return func(b *Bus) { b.onPanic = fn }
}

// NewBus creates a new event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscriptions: make(map[domain.EventType][]subscription),
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a listener for one event type and returns its removal token.
func (b *Bus) Subscribe(eventType domain.EventType, l Listener) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok := Token(b.nextID.Add(1))
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		token:     tok,
		eventType: eventType,
		listener:  l,
	})
	return tok
}

// SubscribeAll registers a listener for every event type.
func (b *Bus) SubscribeAll(l Listener) Token {
	return b.Subscribe(domain.EventAny, l)
}

// Unsubscribe removes a subscription. It reports whether the token was found;
// removing twice is a no-op.
func (b *Bus) Unsubscribe(tok Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.token != tok {
				continue
			}
			// copy so snapshots taken by in-flight publishes stay intact
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.subscriptions, eventType)
			} else {
				b.subscriptions[eventType] = next
			}
			return true
		}
	}
	return false
}

// Publish delivers an event to the listeners registered at the time of the call.
// Specific listeners run first, then wildcard ones.
// A panicking listener is logged and skipped; delivery continues.
func (b *Bus) Publish(eventType domain.EventType, payload any) {
	evt := domain.Event{Type: eventType, Payload: payload, Timestamp: b.now()}

	b.mu.RLock()
	specific := b.subscriptions[eventType]
	var wildcard []subscription
	if eventType != domain.EventAny {
		wildcard = b.subscriptions[domain.EventAny]
	}
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.listener, evt)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.listener, evt)
	}
}

func (b *Bus) safeCall(l Listener, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				"event", string(evt.Type),
				"panic", r,
				"stack", string(debug.Stack()))
			if b.onPanic != nil {
				b.onPanic(evt.Type, r)
			}
		}
	}()
	l(evt)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[domain.EventType][]subscription)
}
