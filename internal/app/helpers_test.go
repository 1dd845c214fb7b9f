package app

import (
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/samber/lo"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func newSession(id, nick string) core.Session {
	return core.NewSession(core.SessionID(id), &domain.User{ID: domain.UserID(id), Nickname: nick}, nopConn{})
}

// lines flattens deliveries into "sid: text" for compact assertions.
func lines(out []core.Delivery) []string {
	return lo.Map(out, func(d core.Delivery, _ int) string {
		return string(d.To.ID()) + ": " + string(d.Frame)
	})
}
