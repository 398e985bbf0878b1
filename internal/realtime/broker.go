// Package realtime fans note change events out to the owner's open
// connections over Server-Sent Events and websockets.
package realtime

import (
	"sync/atomic"

	"github.com/starford/notely/internal/models"
)

// Subscription is one open client connection.
type Subscription struct {
	userID string
	ch     chan models.ChangeEvent
}

// C yields the events for the subscribed user. It is closed on Unsubscribe
// or when the broker stops.
func (s *Subscription) C() <-chan models.ChangeEvent {
	return s.ch
}

type publishReq struct {
	userID string
	event  models.ChangeEvent
}

// Broker manages client subscriptions and routes events to the owning user.
//
// Concurrency model: a single internal event loop (goroutine) owns the
// subscription table. Public methods communicate with this loop through
// channels, so no mutexes are required.
type Broker struct {
	subscribeCh   chan *Subscription
	unsubscribeCh chan *Subscription
	publishCh     chan publishReq
	countReqCh    chan chan int

	dropped atomic.Int64
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan *Subscription),
		unsubscribeCh: make(chan *Subscription),
		publishCh:     make(chan publishReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[string]map[*Subscription]struct{})
	total := 0

	for {
		select {
		case <-b.stopCh:
			for _, subs := range clients {
				for s := range subs {
					close(s.ch)
				}
			}
			return

		case s := <-b.subscribeCh:
			if clients[s.userID] == nil {
				clients[s.userID] = make(map[*Subscription]struct{})
			}
			clients[s.userID][s] = struct{}{}
			total++

		case s := <-b.unsubscribeCh:
			subs := clients[s.userID]
			if _, ok := subs[s]; ok {
				delete(subs, s)
				close(s.ch)
				total--
				if len(subs) == 0 {
					delete(clients, s.userID)
				}
			}

		case req := <-b.publishCh:
			for s := range clients[req.userID] {
				select {
				case s.ch <- req.event:
				default:
					// Client buffer full; skip to avoid blocking broker loop.
					b.dropped.Add(1)
				}
			}

		case resp := <-b.countReqCh:
			resp <- total
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a connection for userID.
func (b *Broker) Subscribe(userID string) *Subscription {
	s := &Subscription{userID: userID, ch: make(chan models.ChangeEvent, 64)}
	if b.closed.Load() {
		close(s.ch)
		return s
	}

	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		close(s.ch)
	}

	return s
}

// Unsubscribe removes a connection and closes its channel.
func (b *Broker) Unsubscribe(s *Subscription) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- s:
	case <-b.stopped:
	}
}

// ClientCount returns the number of open subscriptions.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Dropped returns how many events were skipped because a client was too slow.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Publish routes an event to every connection of userID.
func (b *Broker) Publish(userID string, event models.ChangeEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- publishReq{userID: userID, event: event}:
	case <-b.stopped:
	}
}
