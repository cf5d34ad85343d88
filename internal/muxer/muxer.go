// Package muxer implements the client-side request/reply multiplexer of
// §5/§9: a seq-keyed table of one-shot slots that lets a single connection
// carry many outstanding requests, correlating each response back to its
// caller by the outer envelope's seq field.
package muxer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// DefaultTimeout is the request timeout named in §5.
const DefaultTimeout = 20 * time.Second

// Transport is the minimal write side a Multiplexer needs; the actual
// socket is out of scope per §1.
type Transport interface {
	WriteFrame([]byte) error
}

// Multiplexer owns the seq counter and the outstanding-request table.
type Multiplexer struct {
	seq     uint32
	timeout time.Duration

	mu     sync.Mutex
	slots  map[uint32]chan *wire.Envelope
	dropped atomic.Int64
}

// New returns a Multiplexer using timeout for every request; a
// non-positive timeout selects DefaultTimeout (20s, §5).
func New(timeout time.Duration) *Multiplexer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Multiplexer{
		timeout: timeout,
		slots:   make(map[uint32]chan *wire.Envelope),
	}
}

// Send assigns the next seq, registers a one-shot slot, hands the frame to
// t, and blocks until Deliver fulfills the slot, ctx is done, or the
// configured timeout elapses. The slot is removed on every exit path.
func (m *Multiplexer) Send(ctx context.Context, t Transport, env *wire.Envelope) (*wire.Envelope, error) {
	seq := atomic.AddUint32(&m.seq, 1)
	env.Seq = seq

	slot := make(chan *wire.Envelope, 1)
	m.mu.Lock()
	m.slots[seq] = slot
	m.mu.Unlock()
	defer m.removeSlot(seq)

	frame, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	if err := t.WriteFrame(frame); err != nil {
		return nil, errors.WithMessage(err, "muxer: failed to write frame")
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case resp := <-slot:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errors.Errorf("muxer: request seq %d timed out after %s", seq, m.timeout)
	}
}

// Deliver routes an inbound response to its waiting Send call. A seq with
// no registered slot is a late response after the caller's timeout; it is
// dropped and counted via DroppedLate, never logged with its contents.
func (m *Multiplexer) Deliver(seq uint32, env *wire.Envelope) {
	m.mu.Lock()
	slot, ok := m.slots[seq]
	m.mu.Unlock()
	if !ok {
		m.dropped.Add(1)
		return
	}
	select {
	case slot <- env:
	default:
	}
}

func (m *Multiplexer) removeSlot(seq uint32) {
	m.mu.Lock()
	delete(m.slots, seq)
	m.mu.Unlock()
}

// DroppedLate returns the count of responses that arrived after their
// slot had already timed out and been removed.
func (m *Multiplexer) DroppedLate() int64 {
	return m.dropped.Load()
}
