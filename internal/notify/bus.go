// Package notify implements best-effort fan-out of agent lifecycle events.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/types"
)

const defaultBufferSize = 16

// Bus fans lifecycle events out to all current subscribers. Delivery is
// best-effort: a slow or disconnected subscriber never blocks Publish; when a
// subscriber's buffer is full the oldest event is dropped to make room.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan types.LifecycleEvent
	nextID      uint64
	bufferSize  int
	closed      bool
	logger      *logger.Logger
}

// NewBus creates a notification bus. bufferSize is the per-subscriber queue
// depth; zero selects the default.
func NewBus(bufferSize int, log *logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Bus{
		subscribers: make(map[uint64]chan types.LifecycleEvent),
		bufferSize:  bufferSize,
		logger:      log,
	}
}

// Subscribe registers a new observer and returns its event channel plus an
// unsubscribe function. The channel is closed on unsubscribe and on bus close.
func (b *Bus) Subscribe() (<-chan types.LifecycleEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan types.LifecycleEvent)
		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++

	ch := make(chan types.LifecycleEvent, b.bufferSize)
	b.subscribers[id] = ch

	return ch, func() { b.unsubscribe(id) }
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(event types.LifecycleEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Buffer full: drop the oldest queued event and retry once. If
			// another producer won the race, drop this event instead.
			select {
			case <-ch:
			default:
			}

			select {
			case ch <- event:
			default:
				b.logger.Warn("dropping lifecycle event for slow subscriber",
					zap.Uint64("subscriber_id", id),
					zap.String("kind", string(event.Kind)),
					zap.String("session_id", event.SessionID),
				)
			}
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}
