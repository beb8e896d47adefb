// Package incoming tracks stock already on order. Totals are always reduced
// from a full snapshot of the stored purchase orders and fanned out to
// subscribers, which only ever see whole snapshots.
package incoming

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
)

// Quantities maps productId_size to the quantity on order.
type Quantities map[string]int

// Reduce sums item quantities across every order. Items whose size cannot be
// resolved are skipped.
func Reduce(orders []domain.PurchaseOrder) Quantities {
	q := make(Quantities)
	for _, order := range orders {
		for _, item := range order.Items {
			productID, size, ok := item.Key()
			if !ok {
				continue
			}
			q[domain.SizeKey(productID, size)] += item.Quantity
		}
	}
	return q
}

// Snapshot is one published state of the incoming totals.
type Snapshot struct {
	Version    uint64     `json:"version"`
	Orders     int        `json:"orders"`
	Quantities Quantities `json:"quantities"`
	At         time.Time  `json:"at"`
}

// Stream publishes snapshots with latest-value semantics: a slow subscriber
// skips intermediate snapshots instead of blocking the publisher.
type Stream struct {
	mu      sync.Mutex
	latest  *Snapshot
	subs    map[uint64]chan Snapshot
	nextID  uint64
	version uint64
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewStream() *Stream {
	return &Stream{subs: make(map[uint64]chan Snapshot), done: make(chan struct{})}
}

// Publish recomputes the totals from orders and delivers them to every
// subscriber.
func (s *Stream) Publish(orders []domain.PurchaseOrder) Snapshot {
	q := Reduce(orders)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	snap := Snapshot{Version: s.version, Orders: len(orders), Quantities: q, At: time.Now()}
	s.latest = &snap
	if s.closed {
		return snap
	}
	for _, ch := range s.subs {
		offer(ch, snap)
	}
	return snap
}

// Latest returns the most recent snapshot, if any.
func (s *Stream) Latest() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}

// Subscribe returns a channel that receives the current snapshot, if one
// exists, and every later one. The channel is closed when ctx is done or the
// stream is closed.
func (s *Stream) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.latest != nil {
		ch <- *s.latest
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}()

	return ch
}

// Subscribers returns the number of live subscriptions.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// offer replaces any undelivered snapshot in ch with snap. Must be called
// with the stream lock held.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
