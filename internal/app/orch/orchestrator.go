package orch

import (
	"errors"

	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/command"
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Orchestrator routes parsed commands against the registry and writes the
// resulting lines once the registry lock has been released.
type Orchestrator struct {
	Registry    *app.Registry
	Membership  *app.Membership
	Policy      app.Policy
	DefaultNick string
}

func New(reg *app.Registry, policy app.Policy, defaultNick string) *Orchestrator {
	return &Orchestrator{
		Registry:    reg,
		Membership:  app.NewMembership(reg),
		Policy:      policy,
		DefaultNick: defaultNick,
	}
}

// OnLine handles one inbound line. Callers must serialize lines per session.
func (o *Orchestrator) OnLine(s core.Session, line string) {
	cmd := command.Parse(line)
	log.Debug().Str("module", "orch").Str("sid", string(s.ID())).Str("cmd", cmd.Name()).Msg("route")
	o.deliver(o.Route(s, cmd))
}

// Route executes cmd on behalf of s and returns the lines to deliver.
func (o *Orchestrator) Route(s core.Session, cmd command.Command) []core.Delivery {
	switch c := cmd.(type) {
	case command.Msg:
		if c.ToChannel() {
			return o.channelMessage(s, domain.ChannelName(c.Target), c.Text)
		}
		return o.directMessage(s, c.Target, c.Text)
	case command.Nick:
		return o.nick(s, c)
	case command.Join:
		return o.Membership.Join(s, c.Channel)
	case command.Part:
		return o.Membership.Part(s, c.Channel)
	case command.List:
		return o.list(s)
	case command.Quit:
		s.Conn().Close()
		return nil
	case command.Help:
		return lo.Map(core.HelpLines, func(line string, _ int) core.Delivery {
			return core.To(s, line)
		})
	default:
		return []core.Delivery{core.To(s, core.InvalidCommand)}
	}
}

func (o *Orchestrator) channelMessage(s core.Session, name domain.ChannelName, text string) (out []core.Delivery) {
	o.Registry.Update(func(tx *app.Tx) {
		ch, ok := tx.FindChannelByName(name)
		switch {
		case !ok:
			out = []core.Delivery{core.To(s, core.ChannelDoesNotExist)}
		case !ch.Has(s.ID()):
			out = []core.Delivery{core.To(s, core.NotIn(name))}
		default:
			out = app.Fanout(ch.MembersExcept(s.ID()), core.ChannelMessage(name, s.User().Nickname, text))
		}
	})
	return out
}

func (o *Orchestrator) directMessage(s core.Session, target, text string) (out []core.Delivery) {
	o.Registry.Update(func(tx *app.Tx) {
		to, ok := tx.FindSessionByName(target)
		if !ok {
			out = []core.Delivery{core.To(s, core.UserDoesNotExist)}
			return
		}
		out = []core.Delivery{core.To(to, core.DirectMessage(s.User().Nickname, text))}
	})
	return out
}

func (o *Orchestrator) nick(s core.Session, c command.Nick) (out []core.Delivery) {
	o.Registry.Update(func(tx *app.Tx) {
		if c.Query() {
			out = []core.Delivery{core.To(s, core.NicknameIs(s.User().Nickname))}
			return
		}
		tx.SetNickname(s, c.Nickname)
		out = []core.Delivery{core.To(s, core.NicknameSet(c.Nickname))}
	})
	return out
}

func (o *Orchestrator) list(s core.Session) []core.Delivery {
	return lo.Map(o.Registry.ListChannels(), func(info core.ChannelInfo, _ int) core.Delivery {
		return core.To(s, core.ListEntry(info))
	})
}

// deliver writes each line independently; one failing recipient never
// blocks the others.
func (o *Orchestrator) deliver(out []core.Delivery) {
	for _, d := range out {
		err := d.To.Conn().TrySend(d.Frame)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrBackpressure):
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(d.To.ID())).Msg("recipient buffer full, line dropped")
			if o.Policy != nil && o.Policy.OnBackPressure(d.To) == app.Disconnect {
				d.To.Conn().Close()
			}
		default:
			log.Debug().Err(err).Str("module", "orch").Str("sid", string(d.To.ID())).Msg("write to closed session ignored")
		}
	}
}
