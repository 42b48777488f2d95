package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soundwerk/mw4ctl/internal/protocol"
)

func cc(controller, value byte) *protocol.ControlChangeEvent {
	return &protocol.ControlChangeEvent{Controller: controller, Value: value}
}

func noteOn(key byte) *protocol.NoteEvent {
	return &protocol.NoteEvent{On: true, Key: key, Velocity: 100}
}

func noteOff(key byte) *protocol.NoteEvent {
	return &protocol.NoteEvent{On: false, Key: key}
}

func TestSubscription_FIFOOrder(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategoryControlChange)

	for i := byte(0); i < 5; i++ {
		r.Publish(cc(1, i))
	}

	for i := byte(0); i < 5; i++ {
		ev, ok := sub.TryNext()
		if !ok {
			t.Fatalf("event %d missing", i)
		}
		if got := ev.(*protocol.ControlChangeEvent).Value; got != i {
			t.Errorf("event %d has value %d, want %d", i, got, i)
		}
	}
	if _, ok := sub.TryNext(); ok {
		t.Error("TryNext returned an event from an empty queue")
	}
}

func TestSubscription_DropOldestKeepsNewest(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategoryControlChange)

	total := ccQueueSize + 10
	for i := 0; i < total; i++ {
		r.Publish(cc(74, byte(i%128)))
	}

	if sub.Len() != ccQueueSize {
		t.Fatalf("queue holds %d events, want %d", sub.Len(), ccQueueSize)
	}

	// The survivors are the trailing window; the final value is present.
	var last protocol.Event
	for {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		last = ev
	}
	if got := last.(*protocol.ControlChangeEvent).Value; got != byte((total-1)%128) {
		t.Errorf("last surviving value = %d, want %d", got, (total-1)%128)
	}
}

func TestSubscription_NextWaits(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategoryNote)

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Publish(noteOn(60))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.(*protocol.NoteEvent).Key != 60 {
		t.Errorf("unexpected event %s", ev)
	}
}

func TestSubscription_NextHonorsContext(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategoryNote)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want deadline exceeded", err)
	}
}

func TestSubscription_CloseWakesReader(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategorySysEx)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		done <- err
	}()

	time.Sleep(5 * time.Millisecond)
	sub.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Next() error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not return after Close")
	}
}

func TestSubscription_ClosedStopsReceiving(t *testing.T) {
	r := NewRouter()
	defer r.Close()
	sub := r.Subscribe(protocol.CategoryNote)
	sub.Close()

	r.Publish(noteOn(60))
	if _, ok := sub.TryNext(); ok {
		t.Error("closed subscription received an event")
	}
}
