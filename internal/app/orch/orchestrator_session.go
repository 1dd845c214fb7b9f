package orch

import (
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// OnConnect registers a new session for conn and greets it.
func (o *Orchestrator) OnConnect(conn core.Conn, remote string) core.Session {
	s := core.NewSession(core.SessionID(uuid.NewString()), domain.NewUser(o.DefaultNick), conn)
	o.Registry.AddSession(s)
	log.Info().Str("module", "orch").Str("sid", string(s.ID())).Str("remote", remote).Msg("connected")
	o.deliver([]core.Delivery{core.To(s, core.Welcome)})
	return s
}

// OnDisconnect drops sid from every channel and from the registry.
// Safe to call more than once.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	parted, ok := o.Membership.Disconnect(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("disconnect for unknown session")
		return
	}
	names := lo.Map(parted, func(n domain.ChannelName, _ int) string { return string(n) })
	log.Info().Str("module", "orch").Str("sid", string(sid)).Strs("channels", names).Msg("disconnected")
}

// OnTransportError logs a non-fatal transport fault. State is left untouched.
func (o *Orchestrator) OnTransportError(sid core.SessionID, err error) {
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("transport error")
}
