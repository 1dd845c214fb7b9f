package core

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_conn.go -package=mocks github.com/dkeye/relay/internal/core Conn

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one outbound protocol line without its trailing newline.
type Frame []byte

// Conn abstracts the write side of a client transport.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	// TrySend queues f without blocking. It returns ErrBackpressure when the
	// outbound buffer is full and ErrConnClosed after Close.
	TrySend(f Frame) error
	// Close starts shutting the transport down. Safe to call more than once.
	Close()
}
