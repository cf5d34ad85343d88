// Package transport defines a minimal framed-connection interface, Conn,
// and InProcConn, a channel-backed implementation of it. A real WebSocket
// transport is out of scope; cmd/twoparty-demo uses an InProcConn pair to
// drive a full Party-1/Party-2 exchange without a socket. The session
// engine and the multiplexer do not import this package; the multiplexer
// writes through its own one-method Transport interface.
package transport

import (
	"context"

	"github.com/pkg/errors"
)

// Conn is a bidirectional framed connection. Frames are opaque
// already-serialized wire.Envelope bytes.
type Conn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, frame []byte) error
	Close() error
}

// ErrClosed is returned by ReadFrame/WriteFrame after Close.
var ErrClosed = errors.New("transport: connection closed")

// InProcConn is one end of an in-process, channel-backed connection pair.
type InProcConn struct {
	out    chan<- []byte
	in     <-chan []byte
	closed chan struct{}
	once   closeOnce
}

type closeOnce struct {
	done bool
}

// NewInProcPair returns two InProcConns wired to each other: frames
// written to a are read from b, and vice versa.
func NewInProcPair(buffer int) (a, b *InProcConn) {
	ab := make(chan []byte, buffer)
	ba := make(chan []byte, buffer)
	a = &InProcConn{out: ab, in: ba, closed: make(chan struct{})}
	b = &InProcConn{out: ba, in: ab, closed: make(chan struct{})}
	return a, b
}

func (c *InProcConn) WriteFrame(ctx context.Context, frame []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.out <- frame:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *InProcConn) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-c.in:
		if !ok {
			return nil, ErrClosed
		}
		return frame, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *InProcConn) Close() error {
	if c.once.done {
		return nil
	}
	c.once.done = true
	close(c.closed)
	return nil
}
