package gatefeed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

var ErrHubClosed = errors.New("gatefeed: hub is not running")

type Subscriber struct {
	ceremonyID uint
	send       chan []byte
}

// Messages yields JSON encoded events. It is closed when the subscriber is
// removed from the hub.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

type envelope struct {
	ceremonyID uint
	data       []byte
}

// Hub fans events out to the subscribers of each ceremony. Slow subscribers
// that fill their buffer are dropped.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[*Subscriber]struct{}
	broadcast   chan envelope
	register    chan *Subscriber
	unregister  chan *Subscriber
	done        chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*Subscriber]struct{}),
		broadcast:   make(chan envelope, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		done:        make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, subs := range h.subscribers {
				for s := range subs {
					close(s.send)
				}
				delete(h.subscribers, id)
			}
			h.mu.Unlock()
			return
		case s := <-h.register:
			h.mu.Lock()
			if h.subscribers[s.ceremonyID] == nil {
				h.subscribers[s.ceremonyID] = make(map[*Subscriber]struct{})
			}
			h.subscribers[s.ceremonyID][s] = struct{}{}
			h.mu.Unlock()
		case s := <-h.unregister:
			h.mu.Lock()
			h.remove(s)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.subscribers[msg.ceremonyID] {
				select {
				case s.send <- msg.data:
				default:
					zap.L().Warn("dropping slow gate feed subscriber", zap.Uint("ceremony_id", s.ceremonyID))
					h.remove(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(s *Subscriber) {
	subs, ok := h.subscribers[s.ceremonyID]
	if !ok {
		return
	}
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.subscribers, s.ceremonyID)
	}
}

func (h *Hub) Subscribe(ctx context.Context, ceremonyID uint) (*Subscriber, error) {
	s := &Subscriber{ceremonyID: ceremonyID, send: make(chan []byte, subscriberBuffer)}
	select {
	case h.register <- s:
		return s, nil
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

func (h *Hub) SubscriberCount(ceremonyID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ceremonyID])
}

func (h *Hub) deliver(ctx context.Context, ceremonyID uint, data []byte) error {
	select {
	case h.broadcast <- envelope{ceremonyID: ceremonyID, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish delivers the event to local subscribers only.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.deliver(ctx, event.CeremonyID, data)
}
