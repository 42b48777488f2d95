package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/soundwerk/mw4ctl/internal/protocol"
)

// ErrClosed is returned by Next on a subscription whose queue has been torn
// down.
var ErrClosed = errors.New("subscription closed")

// Queue capacities, fixed per category. SysEx dumps are large and stale
// ones are useless, so that queue is small. Controller movement is a
// continuous stream where only the trailing window matters. Notes get the
// most room because dropping them is audible.
const (
	sysexQueueSize = 8
	ccQueueSize    = 64
	noteQueueSize  = 256
)

func queueSize(cat protocol.Category) int {
	switch cat {
	case protocol.CategorySysEx:
		return sysexQueueSize
	case protocol.CategoryControlChange:
		return ccQueueSize
	default:
		return noteQueueSize
	}
}

// entry wraps a buffered event. Protected entries are note offs whose note
// on already went through this queue; they are never evicted or dropped.
type entry struct {
	ev        protocol.Event
	protected bool
}

// Subscription is one consumer's bounded view of a single event category.
// It receives events published after its creation; there is no replay.
// Reads are safe from multiple goroutines, writes come only from the
// owning router.
type Subscription struct {
	category protocol.Category
	capacity int
	router   *Router

	mu     sync.Mutex
	buf    []entry
	closed bool
	notify chan struct{}

	// Open-note accounting for the pairing guarantee, keyed by
	// channel<<8|key. Only populated on note subscriptions.
	openNotes map[uint16]int
}

func newSubscription(r *Router, cat protocol.Category) *Subscription {
	s := &Subscription{
		category: cat,
		capacity: queueSize(cat),
		router:   r,
		notify:   make(chan struct{}, 1),
	}
	if cat == protocol.CategoryNote {
		s.openNotes = make(map[uint16]int)
	}
	return s
}

// Category reports which event category this subscription delivers.
func (s *Subscription) Category() protocol.Category { return s.category }

// Next returns the next buffered event, waiting until one arrives, the
// subscription is closed, or the context is done. Callers bound the wait
// through the context.
func (s *Subscription) Next(ctx context.Context) (protocol.Event, error) {
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			ev := s.pop()
			s.mu.Unlock()
			return ev, nil
		}
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryNext returns the next buffered event without waiting.
func (s *Subscription) TryNext() (protocol.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return nil, false
	}
	return s.pop(), true
}

// Len reports the number of buffered events.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Close detaches the subscription from its router and wakes any blocked
// readers. Buffered events remain readable until drained.
func (s *Subscription) Close() {
	if s.router != nil {
		s.router.unsubscribe(s)
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

// pop removes and returns the oldest entry. Caller holds the lock.
func (s *Subscription) pop() protocol.Event {
	ev := s.buf[0].ev
	s.buf = s.buf[1:]
	return ev
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// push enqueues one event, applying the category's overflow policy.
func (s *Subscription) push(ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.category == protocol.CategoryNote {
		s.pushNote(ev)
	} else {
		// Drop-oldest: under pressure the newest event wins, so the most
		// recent dump or controller value is never the casualty.
		if len(s.buf) >= s.capacity {
			s.buf = s.buf[1:]
		}
		s.buf = append(s.buf, entry{ev: ev})
	}
	s.wake()
}

func noteKey(n *protocol.NoteEvent) uint16 {
	return uint16(n.Channel)<<8 | uint16(n.Key)
}

// pushNote applies the note queue policy: drop-oldest, except that a note
// off whose note on went through this queue must never be lost. Under
// pressure a buffered note on is evicted to let the note off through.
func (s *Subscription) pushNote(ev protocol.Event) {
	note, ok := ev.(*protocol.NoteEvent)
	if !ok {
		return
	}
	key := noteKey(note)

	if note.On {
		if len(s.buf) >= s.capacity && !s.evictOldestUnprotected() {
			// Nothing evictable: the queue is all protected note offs.
			// The incoming note on loses.
			return
		}
		s.buf = append(s.buf, entry{ev: ev})
		s.openNotes[key]++
		return
	}

	protected := s.openNotes[key] > 0
	if len(s.buf) >= s.capacity && !s.evictOldestUnprotected() && !protected {
		return
	}
	s.buf = append(s.buf, entry{ev: ev, protected: protected})
	if protected {
		if s.openNotes[key]--; s.openNotes[key] == 0 {
			delete(s.openNotes, key)
		}
	}
}

// evictOldestUnprotected removes the oldest entry that is not a protected
// note off. Caller holds the lock.
func (s *Subscription) evictOldestUnprotected() bool {
	for i := range s.buf {
		if !s.buf[i].protected {
			s.buf = append(s.buf[:i], s.buf[i+1:]...)
			return true
		}
	}
	return false
}
