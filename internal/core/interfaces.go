package core

import "errors"

// Frame is a marshaled event ready for the wire.
type Frame []byte

// SessionID identifies one live transport connection. A reconnect produces a
// fresh id; ids are never reused for the lifetime of the process.
type SessionID string

func (sid SessionID) String() string { return string(sid) }

// ErrBackpressure is returned by TrySend when the connection's outbound
// buffer is full. The caller decides what to do with the member (policy).
var ErrBackpressure = errors.New("backpressure")

// SignalConnection abstracts the per-participant messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a frame without blocking. ErrBackpressure if the
	// buffer is full, another error if the connection is already closed.
	TrySend(Frame) error
	Close()
}
