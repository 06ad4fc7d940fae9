// Package live fans activity events out to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"storyhub/pkg/models"
)

const (
	EventStoryCreated   = "story.created"
	EventCommentCreated = "comment.created"
	EventAnnouncement   = "announcement"
)

const (
	broadcastBuffer  = 64
	subscriberBuffer = 32
)

type subscriber struct {
	send chan []byte
}

// Hub owns the subscriber set. All mutation happens on the Run goroutine.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan models.ActivityEvent
	count      chan chan int
	done       chan struct{}

	log  *zap.SugaredLogger
	subs map[*subscriber]struct{}
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan models.ActivityEvent, broadcastBuffer),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		log:        logger,
		subs:       make(map[*subscriber]struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for s := range h.subs {
				h.drop(s)
			}
			return
		case s := <-h.register:
			h.subs[s] = struct{}{}
			h.log.Debugw("live subscriber joined", "subscribers", len(h.subs))
		case s := <-h.unregister:
			if _, ok := h.subs[s]; ok {
				h.drop(s)
				h.log.Debugw("live subscriber left", "subscribers", len(h.subs))
			}
		case reply := <-h.count:
			reply <- len(h.subs)
		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Errorw("marshal live event", "type", ev.Type, "error", err)
				continue
			}
			for s := range h.subs {
				select {
				case s.send <- data:
				default:
					h.log.Infow("dropping slow live subscriber", "type", ev.Type)
					h.drop(s)
				}
			}
		}
	}
}

func (h *Hub) drop(s *subscriber) {
	delete(h.subs, s)
	close(s.send)
}

// Publish queues ev for delivery without blocking the caller. It reports
// false when the event was discarded because the hub is saturated or stopped.
func (h *Hub) Publish(ev models.ActivityEvent) bool {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- ev:
		return true
	default:
		h.log.Warnw("live event discarded", "type", ev.Type)
		return false
	}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the subscriber is dropped or the hub stops; cancel releases it early.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	s := &subscriber{send: make(chan []byte, subscriberBuffer)}
	select {
	case h.register <- s:
	case <-h.done:
		close(s.send)
		return s.send, func() {}
	}
	cancel := func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
	}
	return s.send, cancel
}

// Subscribers reports the current subscriber count, or 0 once stopped.
func (h *Hub) Subscribers() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}
