package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are relayed to.
const DefaultChannel = "switchboard:events"

// Relay forwards bus events to a Redis pub/sub channel so out-of-process UIs can follow
// the engine. Bus listeners run on the publisher goroutine, so events are queued and
// published by a single worker; when the queue is full the event is dropped.
type Relay struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger

	queue chan []byte
	done  chan struct{}
	once  sync.Once
	mu    sync.RWMutex
	shut  bool
}

// RelayOption configures the Relay.
type RelayOption func(*Relay)

// WithChannel sets the target channel (default DefaultChannel).
func WithChannel(name string) RelayOption {
	return func(r *Relay) { r.channel = name }
}

// WithRelayLogger sets the relay logger.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

// WithQueueSize sets how many events may wait for publication (default 256).
func WithQueueSize(n int) RelayOption {
	return func(r *Relay) { r.queue = make(chan []byte, n) }
}

// NewRelay starts the relay worker. Call Close to stop it.
func NewRelay(client *backend.Client, opts ...RelayOption) *Relay {
	r := &Relay{
		client:  client,
		channel: DefaultChannel,
		logger:  slog.New(slog.DiscardHandler),
		queue:   make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Channel returns the channel name.
func (r *Relay) Channel() string {
	return r.channel
}

// Forward is a bus listener.
func (r *Relay) Forward(evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		r.logger.Warn("relay: failed to encode event", "event", evt.Type, "err", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.shut {
		return
	}
	select {
	case r.queue <- data:
	default:
		r.logger.Warn("relay: queue full, dropping event", "event", evt.Type)
	}
}

func (r *Relay) run() {
	defer close(r.done)
	for data := range r.queue {
		if err := r.client.Publish(context.Background(), r.channel, data).Err(); err != nil {
			r.logger.Warn("relay: publish failed", "channel", r.channel, "err", err)
		}
	}
}

// Close stops accepting events, drains the queue and waits for the worker.
func (r *Relay) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.shut = true
		close(r.queue)
		r.mu.Unlock()
	})
	<-r.done
}
