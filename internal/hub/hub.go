package hub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// DefaultBuffer is the Send buffer of a subscriber
const DefaultBuffer = 64

type HubInterface interface {
	BroadcastToPlayers(ids []string, msg OutgoingMessage)
	SendToPlayer(id string, msg OutgoingMessage)
}

// Discard drops every message
type Discard struct{}

func (Discard) BroadcastToPlayers([]string, OutgoingMessage) {}
func (Discard) SendToPlayer(string, OutgoingMessage)         {}

// Subscriber receives the messages addressed to one player id
type Subscriber struct {
	ID   string
	Send chan OutgoingMessage
}

type Hub struct {
	subscribers map[string]*Subscriber // id -> subscriber
	watchers    map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	outbox      chan outgoing
	quit        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	dropped     atomic.Int64
	mu          sync.RWMutex
	logger      *log.Logger
}

// outgoing keeps broadcasts and private sends on one queue so their order is preserved
type outgoing struct {
	IDs       []string
	Broadcast bool
	Message   OutgoingMessage
}

func New(logger *log.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		watchers:    make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		outbox:      make(chan outgoing, DefaultBuffer),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.WithPrefix("hub"),
	}
}

// Run is the event loop. It returns when ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Debug("hub started")
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			if s.ID == "" {
				h.watchers[s] = true
			} else {
				if old, ok := h.subscribers[s.ID]; ok {
					close(old.Send)
				}
				h.subscribers[s.ID] = s
			}
			h.logger.Debug("register", "id", s.ID, "subscribers", len(h.subscribers), "watchers", len(h.watchers))
			h.mu.Unlock()

		case s := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.subscribers[s.ID]; ok && cur == s {
				delete(h.subscribers, s.ID)
				close(s.Send)
			} else if h.watchers[s] {
				delete(h.watchers, s)
				close(s.Send)
			}
			h.mu.Unlock()

		case req := <-h.outbox:
			h.mu.RLock()
			for _, id := range req.IDs {
				if s, ok := h.subscribers[id]; ok {
					h.deliver(s, req.Message)
				}
			}
			if req.Broadcast {
				for w := range h.watchers {
					h.deliver(w, req.Message)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			return

		case <-h.quit:
			return
		}
	}
}

// deliver never blocks: a full subscriber loses the message
func (h *Hub) deliver(s *Subscriber, msg OutgoingMessage) {
	select {
	case s.Send <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Warn("subscriber too slow, message dropped", "id", s.ID, "event", msg.Event)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.subscribers {
		close(s.Send)
		delete(h.subscribers, id)
	}
	for w := range h.watchers {
		close(w.Send)
		delete(h.watchers, w)
	}
}

// Subscribe registers a player id. Messages for that id arrive on the returned Send channel.
func (h *Hub) Subscribe(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	s := &Subscriber{ID: id, Send: make(chan OutgoingMessage, buffer)}
	select {
	case h.register <- s:
	case <-h.done:
		close(s.Send)
	}
	return s
}

// Watch registers a spectator that receives every broadcast but no private message
func (h *Hub) Watch(buffer int) *Subscriber {
	return h.Subscribe("", buffer)
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Broadcast to multiple players
func (h *Hub) BroadcastToPlayers(ids []string, msg OutgoingMessage) {
	select {
	case h.outbox <- outgoing{IDs: ids, Broadcast: true, Message: msg}:
	case <-h.done:
	}
}

// Send to a single player
func (h *Hub) SendToPlayer(id string, msg OutgoingMessage) {
	select {
	case h.outbox <- outgoing{IDs: []string{id}, Message: msg}:
	case <-h.done:
	}
}

// Dropped returns how many messages were lost to slow subscribers
func (h *Hub) Dropped() int {
	return int(h.dropped.Load())
}

// Close stops Run and closes every subscriber
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.quit)
	})
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
