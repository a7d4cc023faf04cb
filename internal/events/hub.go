// Package events fans completed verifications out to subscribers without
// ever letting a slow consumer apply backpressure to producers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"slotguard/internal/verify"
)

// Event is the broadcast summary of one completed verification.
type Event struct {
	Signature  string    `json:"signature"`
	Verified   bool      `json:"verified"`
	Slot       uint64    `json:"slot"`
	RiskScore  float64   `json:"risk_score"`
	ObservedAt time.Time `json:"observed_at"`
}

// FromResult builds the broadcast view of a verification result.
func FromResult(r *verify.Result) Event {
	return Event{
		Signature:  r.Signature,
		Verified:   r.Verified,
		Slot:       r.Slot,
		RiskScore:  r.RiskScore,
		ObservedAt: r.ObservedAt,
	}
}

// Hub delivers events over one bounded channel per subscriber. Publishing
// never blocks: when a subscriber's buffer is full the event is dropped for
// that subscriber.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]chan Event
	nextID      uint64
	bufferSize  int
	dropHook    func()
	logger      zerolog.Logger
}

// Options configure the hub.
type Options struct {
	// BufferSize is each subscriber's channel capacity.
	BufferSize int
	// DropHook, when set, is invoked once per dropped event.
	DropHook func()
}

// NewHub builds a broadcast hub.
func NewHub(opts Options, logger zerolog.Logger) *Hub {
	size := opts.BufferSize
	if size <= 0 {
		size = 100
	}
	return &Hub{
		subscribers: make(map[uint64]chan Event),
		bufferSize:  size,
		dropHook:    opts.DropHook,
		logger:      logger.With().Str("component", "event_hub").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function. The channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufferSize)
	h.subscribers[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, dropping it for any whose
// buffer is full.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			if h.dropHook != nil {
				h.dropHook()
			}
			h.logger.Debug().Uint64("subscriber", id).Str("signature", event.Signature).Msg("subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
