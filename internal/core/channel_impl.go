package core

import (
	"github.com/dkeye/relay/internal/domain"
	"github.com/samber/lo"
)

// Channel is an in-memory broadcast group. Members are kept in join order.
// It is not safe for concurrent use; the owning registry serializes access.
// It never closes adapter-owned resources.
type Channel struct {
	name    domain.ChannelName
	members []Session
}

// NewChannel creates a channel whose sole member is founder.
func NewChannel(name domain.ChannelName, founder Session) *Channel {
	return &Channel{name: name, members: []Session{founder}}
}

func (c *Channel) Name() domain.ChannelName { return c.name }

func (c *Channel) MemberCount() int { return len(c.members) }

func (c *Channel) Has(sid SessionID) bool {
	return c.indexOf(sid) >= 0
}

// Add appends s unless it is already a member. It reports whether s was added.
func (c *Channel) Add(s Session) bool {
	if c.Has(s.ID()) {
		return false
	}
	c.members = append(c.members, s)
	return true
}

// Remove drops sid from the membership. It reports whether sid was a member.
func (c *Channel) Remove(sid SessionID) bool {
	i := c.indexOf(sid)
	if i < 0 {
		return false
	}
	c.members = append(c.members[:i], c.members[i+1:]...)
	return true
}

// MembersExcept returns a snapshot of every member other than from.
func (c *Channel) MembersExcept(from SessionID) []Session {
	return lo.Filter(c.members, func(s Session, _ int) bool {
		return s.ID() != from
	})
}

// Snapshot returns the members as read-only views.
func (c *Channel) Snapshot() []domain.Member {
	return lo.Map(c.members, func(s Session, _ int) domain.Member {
		return domain.NewMember(s.User())
	})
}

func (c *Channel) Info() ChannelInfo {
	return ChannelInfo{Name: c.name, MemberCount: len(c.members)}
}

func (c *Channel) indexOf(sid SessionID) int {
	_, i, ok := lo.FindIndexOf(c.members, func(s Session) bool {
		return s.ID() == sid
	})
	if !ok {
		return -1
	}
	return i
}
