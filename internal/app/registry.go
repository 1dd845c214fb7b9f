package app

import (
	"errors"
	"sync"

	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var ErrChannelExists = errors.New("channel already exists")

// Registry owns every session and channel of the process. A single mutex
// guards both collections; nothing blocking may run while it is held.
type Registry struct {
	mu       sync.Mutex
	sessions []core.Session
	channels map[domain.ChannelName]*core.Channel
	order    []domain.ChannelName
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[domain.ChannelName]*core.Channel),
	}
}

// Update runs fn with exclusive access to the registry state.
// The Tx must not escape fn. Log lines queued on the Tx are written
// once the lock is released.
func (r *Registry) Update(fn func(tx *Tx)) {
	tx := &Tx{r: r}
	func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		fn(tx)
	}()
	for _, emit := range tx.logs {
		emit()
	}
}

func (r *Registry) AddSession(s core.Session) {
	r.Update(func(tx *Tx) { tx.AddSession(s) })
}

func (r *Registry) RemoveSession(sid core.SessionID) (removed bool) {
	r.Update(func(tx *Tx) { removed = tx.RemoveSession(sid) })
	return removed
}

func (r *Registry) Session(sid core.SessionID) (s core.Session, ok bool) {
	r.Update(func(tx *Tx) { s, ok = tx.Session(sid) })
	return s, ok
}

// FindSessionByName returns the first session, in registration order,
// whose nickname equals name.
func (r *Registry) FindSessionByName(name string) (s core.Session, ok bool) {
	r.Update(func(tx *Tx) { s, ok = tx.FindSessionByName(name) })
	return s, ok
}

func (r *Registry) SessionCount() (n int) {
	r.Update(func(tx *Tx) { n = len(tx.r.sessions) })
	return n
}

func (r *Registry) AddChannel(ch *core.Channel) (err error) {
	r.Update(func(tx *Tx) { err = tx.AddChannel(ch) })
	return err
}

func (r *Registry) RemoveChannel(name domain.ChannelName) (removed bool) {
	r.Update(func(tx *Tx) { removed = tx.RemoveChannel(name) })
	return removed
}

func (r *Registry) FindChannelByName(name domain.ChannelName) (info core.ChannelInfo, ok bool) {
	r.Update(func(tx *Tx) {
		var ch *core.Channel
		if ch, ok = tx.FindChannelByName(name); ok {
			info = ch.Info()
		}
	})
	return info, ok
}

// ListChannels returns every channel in creation order.
func (r *Registry) ListChannels() (out []core.ChannelInfo) {
	r.Update(func(tx *Tx) {
		out = lo.Map(tx.ListChannels(), func(ch *core.Channel, _ int) core.ChannelInfo {
			return ch.Info()
		})
	})
	return out
}

// Members returns a snapshot of a channel's members in join order.
func (r *Registry) Members(name domain.ChannelName) (out []domain.Member, ok bool) {
	r.Update(func(tx *Tx) {
		var ch *core.Channel
		if ch, ok = tx.FindChannelByName(name); ok {
			out = ch.Snapshot()
		}
	})
	return out, ok
}

// Tx exposes the registry state to code already holding the lock.
type Tx struct {
	r    *Registry
	logs []func()
}

// Log defers emit until the registry lock is released.
func (tx *Tx) Log(emit func()) {
	tx.logs = append(tx.logs, emit)
}

func (tx *Tx) AddSession(s core.Session) {
	if _, ok := tx.Session(s.ID()); ok {
		return
	}
	tx.r.sessions = append(tx.r.sessions, s)
	n := len(tx.r.sessions)
	tx.Log(func() {
		log.Info().Str("module", "app.registry").Str("sid", string(s.ID())).Int("sessions", n).Msg("session added")
	})
}

func (tx *Tx) RemoveSession(sid core.SessionID) bool {
	_, i, ok := lo.FindIndexOf(tx.r.sessions, func(s core.Session) bool { return s.ID() == sid })
	if !ok {
		return false
	}
	tx.r.sessions = append(tx.r.sessions[:i], tx.r.sessions[i+1:]...)
	n := len(tx.r.sessions)
	tx.Log(func() {
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("sessions", n).Msg("session removed")
	})
	return true
}

func (tx *Tx) Session(sid core.SessionID) (core.Session, bool) {
	return lo.Find(tx.r.sessions, func(s core.Session) bool { return s.ID() == sid })
}

func (tx *Tx) FindSessionByName(name string) (core.Session, bool) {
	return lo.Find(tx.r.sessions, func(s core.Session) bool { return s.User().Nickname == name })
}

func (tx *Tx) SetNickname(s core.Session, name string) {
	s.User().SetNickname(name)
}

func (tx *Tx) AddChannel(ch *core.Channel) error {
	if _, ok := tx.r.channels[ch.Name()]; ok {
		return ErrChannelExists
	}
	tx.r.channels[ch.Name()] = ch
	tx.r.order = append(tx.r.order, ch.Name())
	tx.Log(func() {
		log.Info().Str("module", "app.registry").Str("channel", string(ch.Name())).Msg("channel created")
	})
	return nil
}

func (tx *Tx) RemoveChannel(name domain.ChannelName) bool {
	if _, ok := tx.r.channels[name]; !ok {
		return false
	}
	delete(tx.r.channels, name)
	tx.r.order = lo.Without(tx.r.order, name)
	tx.Log(func() {
		log.Info().Str("module", "app.registry").Str("channel", string(name)).Msg("channel destroyed")
	})
	return true
}

func (tx *Tx) FindChannelByName(name domain.ChannelName) (*core.Channel, bool) {
	ch, ok := tx.r.channels[name]
	return ch, ok
}

func (tx *Tx) ListChannels() []*core.Channel {
	return lo.Map(tx.r.order, func(name domain.ChannelName, _ int) *core.Channel {
		return tx.r.channels[name]
	})
}
