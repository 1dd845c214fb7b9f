// Package tcp serves the line protocol over plain TCP connections.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dkeye/relay/internal/core"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit    int
	SendBuffer   int
	WriteTimeout time.Duration
}

// Server accepts connections and runs one read pump and one write pump per
// client. Lines of a client are handed to the Lifecycle in arrival order.
type Server struct {
	h    core.Lifecycle
	opts Options

	mu    sync.Mutex
	conns map[*lineConn]struct{}
	wg    sync.WaitGroup
}

func NewServer(h core.Lifecycle, opts Options) *Server {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 4096
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Server{
		h:     h,
		opts:  opts,
		conns: make(map[*lineConn]struct{}),
	}
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is canceled or ln is closed, then closes
// every client and waits for their pumps to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log.Info().Str("module", "adapters.tcp").Str("addr", ln.Addr().String()).Msg("listening")
	for {
		nc, err := ln.Accept()
		if err != nil {
			s.shutdown()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.handle(nc)
	}
}

func (s *Server) handle(nc net.Conn) {
	c := newLineConn(nc, s.opts.SendBuffer, s.opts.WriteTimeout)
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	sess := s.h.OnConnect(c, nc.RemoteAddr().String())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump(sess.ID(), s.h)
	}()
	go func() {
		defer s.wg.Done()
		defer s.forget(c)
		c.readPump(sess, s.h, s.opts.ReadLimit)
	}()
}

func (s *Server) forget(c *lineConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) shutdown() {
	s.mu.Lock()
	conns := make([]*lineConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()
	log.Info().Str("module", "adapters.tcp").Int("closed", len(conns)).Msg("all clients closed")
}
