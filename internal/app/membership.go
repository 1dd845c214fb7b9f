package app

import (
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Membership implements join/part on top of the registry. Every method takes
// the registry lock once and returns the lines to deliver after it is released.
type Membership struct {
	reg *Registry
}

func NewMembership(reg *Registry) *Membership {
	return &Membership{reg: reg}
}

// Join adds s to the channel, creating it when it does not exist yet.
func (m *Membership) Join(s core.Session, name domain.ChannelName) (out []core.Delivery) {
	m.reg.Update(func(tx *Tx) {
		if _, ok := tx.Session(s.ID()); !ok {
			tx.Log(func() {
				log.Debug().Str("module", "app.membership").Str("sid", string(s.ID())).Msg("join from stale session")
			})
			return
		}
		out = m.join(tx, s, name)
	})
	return out
}

// Part removes s from the channel and destroys the channel when it empties.
func (m *Membership) Part(s core.Session, name domain.ChannelName) (out []core.Delivery) {
	m.reg.Update(func(tx *Tx) {
		if _, ok := tx.Session(s.ID()); !ok {
			tx.Log(func() {
				log.Debug().Str("module", "app.membership").Str("sid", string(s.ID())).Msg("part from stale session")
			})
			return
		}
		out = m.part(tx, s, name)
	})
	return out
}

// Disconnect removes sid from every channel, then from the registry.
// Remaining members are not notified. A second call for the same sid is a no-op.
func (m *Membership) Disconnect(sid core.SessionID) (parted []domain.ChannelName, ok bool) {
	m.reg.Update(func(tx *Tx) {
		if _, ok = tx.Session(sid); !ok {
			return
		}
		parted = m.partAll(tx, sid)
		tx.RemoveSession(sid)
	})
	return parted, ok
}

func (m *Membership) join(tx *Tx, s core.Session, name domain.ChannelName) []core.Delivery {
	ch, ok := tx.FindChannelByName(name)
	if !ok {
		if err := tx.AddChannel(core.NewChannel(name, s)); err != nil {
			tx.Log(func() {
				log.Error().Err(err).Str("module", "app.membership").Str("channel", string(name)).Msg("create channel")
			})
			return nil
		}
		return []core.Delivery{core.To(s, core.Created(name))}
	}
	if !ch.Add(s) {
		return []core.Delivery{core.To(s, core.AlreadyIn(name))}
	}
	n := ch.MemberCount()
	tx.Log(func() {
		log.Debug().Str("module", "app.membership").Str("sid", string(s.ID())).Str("channel", string(name)).Int("members", n).Msg("joined")
	})
	out := Fanout(ch.MembersExcept(s.ID()), core.JoinNotice(name, s.User().Nickname))
	return append(out, core.To(s, core.Joined(name)))
}

func (m *Membership) part(tx *Tx, s core.Session, name domain.ChannelName) []core.Delivery {
	ch, ok := tx.FindChannelByName(name)
	if !ok {
		return []core.Delivery{core.To(s, core.ChannelDoesNotExist)}
	}
	if !ch.Remove(s.ID()) {
		return []core.Delivery{core.To(s, core.NotIn(name))}
	}
	n := ch.MemberCount()
	tx.Log(func() {
		log.Debug().Str("module", "app.membership").Str("sid", string(s.ID())).Str("channel", string(name)).Int("members", n).Msg("parted")
	})
	if ch.MemberCount() == 0 {
		tx.RemoveChannel(name)
		return []core.Delivery{core.To(s, core.Parted(name))}
	}
	out := Fanout(ch.MembersExcept(s.ID()), core.LeaveNotice(name, s.User().Nickname))
	return append(out, core.To(s, core.Parted(name)))
}

func (m *Membership) partAll(tx *Tx, sid core.SessionID) []domain.ChannelName {
	var parted []domain.ChannelName
	for _, ch := range tx.ListChannels() {
		if !ch.Remove(sid) {
			continue
		}
		parted = append(parted, ch.Name())
		if ch.MemberCount() == 0 {
			tx.RemoveChannel(ch.Name())
		}
	}
	return parted
}

// Fanout addresses the same line to every recipient.
func Fanout(to []core.Session, line string) []core.Delivery {
	return lo.Map(to, func(s core.Session, _ int) core.Delivery {
		return core.To(s, line)
	})
}
