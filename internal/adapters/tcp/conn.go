package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dkeye/relay/internal/core"
	"github.com/rs/zerolog/log"
)

// lineConn is a newline-framed transport endpoint over a stream socket.
// It implements core.Conn.
type lineConn struct {
	conn         net.Conn
	send         chan core.Frame
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func newLineConn(conn net.Conn, buffer int, writeTimeout time.Duration) *lineConn {
	return &lineConn{
		conn:         conn,
		send:         make(chan core.Frame, buffer),
		writeTimeout: writeTimeout,
	}
}

func (c *lineConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close stops accepting lines. The write pump flushes what is queued and
// then closes the socket, which ends the read pump.
func (c *lineConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *lineConn) writePump(sid core.SessionID, h core.Lifecycle) {
	defer func() {
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Str("module", "adapters.tcp").Str("sid", string(sid)).Msg("close error")
		}
	}()

	w := bufio.NewWriter(c.conn)
	for data := range c.send {
		if c.writeTimeout > 0 {
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				h.OnTransportError(sid, fmt.Errorf("set write deadline: %w", err))
				return
			}
		}
		_, _ = w.Write(data)
		_ = w.WriteByte('\n')
		// Coalesce whatever else is already queued into the same flush.
		if len(c.send) > 0 {
			continue
		}
		if err := w.Flush(); err != nil {
			h.OnTransportError(sid, fmt.Errorf("write: %w", err))
			return
		}
	}
	if err := w.Flush(); err != nil {
		log.Debug().Err(err).Str("module", "adapters.tcp").Str("sid", string(sid)).Msg("final flush failed")
	}
}

func (c *lineConn) readPump(s core.Session, h core.Lifecycle, readLimit int) {
	sid := s.ID()
	defer func() {
		log.Debug().Str("module", "adapters.tcp").Str("sid", string(sid)).Msg("readPump closing")
		h.OnDisconnect(sid)
		c.Close()
	}()

	// Room for the terminator (\r\n) on top of readLimit bytes of content.
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, min(readLimit+2, 4096)), readLimit+2)
	for scanner.Scan() {
		if len(scanner.Bytes()) > readLimit {
			logTooLong(sid, readLimit)
			return
		}
		h.OnLine(s, scanner.Text())
	}

	err := scanner.Err()
	switch {
	case err == nil, errors.Is(err, net.ErrClosed):
	case errors.Is(err, bufio.ErrTooLong):
		logTooLong(sid, readLimit)
	default:
		h.OnTransportError(sid, fmt.Errorf("read: %w", err))
	}
}

func logTooLong(sid core.SessionID, readLimit int) {
	log.Warn().Str("module", "adapters.tcp").Str("sid", string(sid)).Int("limit", readLimit).Msg("line too long, closing")
}
