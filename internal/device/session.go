package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/soundwerk/mw4ctl/internal/logging"
	"github.com/soundwerk/mw4ctl/internal/protocol"
	"github.com/soundwerk/mw4ctl/internal/stream"
	"github.com/soundwerk/mw4ctl/internal/transport"
)

// readBufferSize is sized for a full all dump plus interleaved voice
// traffic in one read.
const readBufferSize = 1024

// Stats counts session activity. All counters are monotonic.
type Stats struct {
	BytesRead       uint64
	EventsPublished uint64
	ProtocolErrors  uint64
	FramesSent      uint64
}

// Session owns a transport connection to one MW-4 and turns its byte
// stream into routed events. One goroutine (Run) reads; any number of
// goroutines may send or subscribe.
type Session struct {
	conn   transport.Connection
	reasm  *protocol.Reassembler
	router *stream.Router

	sendMu sync.Mutex

	closeOnce sync.Once
	closed    atomic.Bool

	bytesRead       atomic.Uint64
	eventsPublished atomic.Uint64
	protocolErrors  atomic.Uint64
	framesSent      atomic.Uint64
}

// NewSession wraps an open connection. The caller must start Run to begin
// event delivery, and Close when done; Close also closes the connection.
func NewSession(conn transport.Connection) *Session {
	return &Session{
		conn:   conn,
		reasm:  protocol.NewReassembler(),
		router: stream.NewRouter(),
	}
}

// Subscribe returns a queue of events in the given category. Each
// subscription buffers independently.
func (s *Session) Subscribe(cat protocol.Category) *stream.Subscription {
	return s.router.Subscribe(cat)
}

// Run reads from the connection until it fails, the context is cancelled,
// or the session is closed. Protocol errors in the inbound stream are
// counted and logged, never fatal.
func (s *Session) Run(ctx context.Context) error {
	// Reads block with no deadline, so cancellation works by closing
	// the connection out from under them.
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.bytesRead.Add(uint64(n))
			s.ingest(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.closed.Load() || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("connection read failed: %w", err)
		}
	}
}

func (s *Session) ingest(chunk []byte) {
	events, errs := s.reasm.Feed(chunk)
	for _, err := range errs {
		s.protocolErrors.Add(1)
		logging.Warn("Discarded inbound frame",
			zap.Error(err),
		)
	}
	for _, ev := range events {
		s.eventsPublished.Add(1)
		s.router.Publish(ev)
	}
}

// Send writes one complete MIDI message to the device. Concurrent senders
// are serialized so frames never interleave on the wire.
func (s *Session) Send(msg []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}

	logging.LogFrame("sent", msg)
	if _, err := s.conn.Write(msg); err != nil {
		return fmt.Errorf("connection write failed: %w", err)
	}
	s.framesSent.Add(1)
	return nil
}

// RequestProgram asks the device to dump the edit buffer contents of one
// program slot. The response arrives as a SysExEvent.
func (s *Session) RequestProgram(deviceID, program byte) error {
	msg, err := protocol.BuildProgramRequest(deviceID, program)
	if err != nil {
		return err
	}
	return s.Send(msg)
}

// RequestBulk asks for the stored (non-edit-buffer) copy of one program.
func (s *Session) RequestBulk(deviceID, program byte) error {
	msg, err := protocol.BuildBulkRequest(deviceID, program)
	if err != nil {
		return err
	}
	return s.Send(msg)
}

// RequestAll asks the device to dump its entire memory.
func (s *Session) RequestAll(deviceID byte) error {
	return s.Send(protocol.BuildAllRequest(deviceID))
}

// SendProgram pushes a parameter set to the device's edit buffer.
func (s *Session) SendProgram(set protocol.ParameterSet, deviceID byte) error {
	typ, ok := protocol.TypeOf(protocol.CmdProgramDump)
	if !ok {
		return fmt.Errorf("program dump type not registered")
	}
	msg, err := protocol.Encode(set, typ, deviceID)
	if err != nil {
		return err
	}
	return s.Send(msg)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		BytesRead:       s.bytesRead.Load(),
		EventsPublished: s.eventsPublished.Load(),
		ProtocolErrors:  s.protocolErrors.Load(),
		FramesSent:      s.framesSent.Load(),
	}
}

// Close shuts down the session: the connection is closed, Run returns,
// and all subscriptions drain then report closed.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.conn.Close()
		s.router.Close()
	})
	return err
}
