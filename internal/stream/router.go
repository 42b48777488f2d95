package stream

import (
	"sync"

	"github.com/soundwerk/mw4ctl/internal/protocol"
)

// Router fans classified, decoded events out to category subscriptions.
// One producer (the session read loop) calls Publish; any number of
// consumers hold subscriptions. Queues live as long as their subscription,
// and the router tears everything down with the owning connection.
type Router struct {
	mu     sync.RWMutex
	subs   map[protocol.Category][]*Subscription
	closed bool
}

// NewRouter returns an empty router with no subscriptions.
func NewRouter() *Router {
	return &Router{subs: make(map[protocol.Category][]*Subscription)}
}

// Subscribe creates a new bounded queue for the given category. The
// subscription sees only events published from this point forward.
func (r *Router) Subscribe(cat protocol.Category) *Subscription {
	s := newSubscription(r, cat)
	r.mu.Lock()
	if r.closed {
		s.closed = true
	} else {
		r.subs[cat] = append(r.subs[cat], s)
	}
	r.mu.Unlock()
	return s
}

// Publish delivers one event to every subscription of its category.
// Overflow is handled per queue; Publish itself never blocks.
func (r *Router) Publish(ev protocol.Event) {
	// Subscribe and unsubscribe edit the slice in place under the write
	// lock, so the read lock must cover the fan-out loop, not just the map
	// lookup. push never blocks, keeping the hold time bounded.
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs[ev.Category()] {
		s.push(ev)
	}
}

// Close detaches and closes every subscription. Subsequent Publish calls
// are no-ops and subsequent Subscribe calls return closed subscriptions.
func (r *Router) Close() {
	r.mu.Lock()
	var all []*Subscription
	for _, subs := range r.subs {
		all = append(all, subs...)
	}
	r.subs = make(map[protocol.Category][]*Subscription)
	r.closed = true
	r.mu.Unlock()

	for _, s := range all {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.wake()
	}
}

func (r *Router) unsubscribe(target *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subs[target.category]
	for i, s := range subs {
		if s == target {
			r.subs[target.category] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
