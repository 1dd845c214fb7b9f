package signal

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dkeye/relay/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(sid core.SessionID, c *WsSignalConn) {
	defer func() { _ = c.conn.Close() }()

	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteTimeout)); err != nil {
			ctl.Lifecycle.OnTransportError(sid, fmt.Errorf("set write deadline: %w", err))
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			ctl.Lifecycle.OnTransportError(sid, fmt.Errorf("write: %w", err))
			return
		}
	}

	log.Debug().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("writePump channel closed")
	deadline := time.Now().Add(ctl.Opts.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		log.Debug().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("close frame not sent")
	}
}

func (ctl *SignalWSController) readPump(s core.Session, c *WsSignalConn) {
	sid := s.ID()
	defer func() {
		log.Debug().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Lifecycle.OnDisconnect(sid)
		c.Close()
	}()

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) {
				ctl.Lifecycle.OnTransportError(sid, fmt.Errorf("read: %w", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		// One frame may carry several newline-separated commands.
		for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\n") {
			ctl.Lifecycle.OnLine(s, strings.TrimSuffix(line, "\r"))
		}
	}
}

func isExpectedCloseError(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) ||
		errors.Is(err, net.ErrClosed)
}
