package identity

import "sync"

// Hub fans provider push events out to subscribers. Each subscriber gets its
// own buffered queue drained by a dedicated goroutine, so publishers never
// run subscriber callbacks inline and per-subscriber ordering is preserved.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

const subscriberBuffer = 16

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

// Publish delivers the event to every current subscriber. It blocks only if a
// subscriber's queue is full, which keeps delivery at-least-once rather than
// best-effort. Sends happen outside the hub lock, so a backed-up subscriber
// stalls its publisher but never Subscribe or Unsubscribe; an unsubscribe
// releases any publisher still parked on that queue.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	targets := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		select {
		case s.ch <- ev:
		case <-s.quit:
		}
	}
}

// Subscribe registers fn to receive future events. The returned Subscription
// must be unsubscribed when the consumer is torn down.
func (h *Hub) Subscribe(fn func(Event)) Subscription {
	s := &subscription{
		hub:  h,
		ch:   make(chan Event, subscriberBuffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	s.id = h.nextID
	h.nextID++
	h.subs[s.id] = s
	h.mu.Unlock()

	go func() {
		defer close(s.done)
		for {
			select {
			case ev := <-s.ch:
				fn(ev)
			case <-s.quit:
				// Drain whatever was queued before the unsubscribe.
				for {
					select {
					case ev := <-s.ch:
						fn(ev)
					default:
						return
					}
				}
			}
		}
	}()

	return s
}

type subscription struct {
	hub  *Hub
	id   int
	ch   chan Event
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// Unsubscribe removes the subscriber and waits for its queue to drain, so no
// callback fires after Unsubscribe returns.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.quit)
		<-s.done
	})
}
