// Package signal serves the line protocol over WebSocket text frames.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/relay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit    int64
	SendBuffer   int
	WriteTimeout time.Duration
}

type SignalWSController struct {
	Lifecycle core.Lifecycle
	Opts      Options
}

func NewSignalWSController(h core.Lifecycle, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &SignalWSController{Lifecycle: h, Opts: opts}
}

// WsSignalConn implements core.Conn on top of a WebSocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
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

// Close stops accepting frames; the write pump sends a close frame once the
// queue is drained.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the session until either side
// closes or ctx is canceled.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}
	if ctl.Opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Opts.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}
	sess := ctl.Lifecycle.OnConnect(conn, c.ClientIP())
	log.Info().Str("module", "adapters.signal").Str("sid", string(sess.ID())).Str("client", c.GetString("client_token")).Msg("new WS connection")

	stop := context.AfterFunc(ctx, conn.Close)
	go ctl.writePump(sess.ID(), conn)
	go func() {
		defer stop()
		ctl.readPump(sess, conn)
	}()
}
