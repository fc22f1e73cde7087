package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Message is one encoded event ready to be written to an SSE client.
type Message struct {
	Type domain.EventType
	Data string
}

// StreamManager fans bus events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]map[domain.EventType]struct{} // channel -> type filter (empty: all)
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]map[domain.EventType]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a client. The returned func removes it and closes the channel.
func (sm *StreamManager) Subscribe(types ...domain.EventType) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	filter := make(map[domain.EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	ch := make(chan Message, 16)
	sm.subscribers[ch] = filter

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Count returns the number of connected clients.
func (sm *StreamManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Publish is a bus listener: it encodes the event once and offers it to every client.
func (sm *StreamManager) Publish(evt domain.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		sm.logger.Warn("SSE: failed to encode event", "event", evt.Type, "err", err)
		return
	}
	msg := Message{Type: evt.Type, Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch, filter := range sm.subscribers {
		if len(filter) > 0 {
			if _, ok := filter[evt.Type]; !ok {
				continue
			}
		}
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "event", evt.Type)
		}
	}
}
