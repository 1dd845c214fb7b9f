// Package command turns one protocol line into a typed command value.
package command

import "github.com/dkeye/relay/internal/domain"

// Command is one of Msg, Nick, Join, Part, List, Quit, Help or Invalid.
type Command interface {
	Name() string
}

// Msg sends Text to a channel or to the first user named Target.
type Msg struct {
	Target string
	Text   string
}

// ToChannel reports whether Target refers to a channel.
func (m Msg) ToChannel() bool { return domain.IsChannelName(m.Target) }

// Nick queries the nickname when Nickname is empty, sets it otherwise.
type Nick struct {
	Nickname string
}

func (n Nick) Query() bool { return n.Nickname == "" }

type Join struct {
	Channel domain.ChannelName
}

type Part struct {
	Channel domain.ChannelName
}

type List struct{}

type Quit struct{}

type Help struct{}

// Invalid covers unknown commands and wrong arity or shape.
type Invalid struct{}

func (Msg) Name() string     { return "msg" }
func (Nick) Name() string    { return "nick" }
func (Join) Name() string    { return "join" }
func (Part) Name() string    { return "part" }
func (List) Name() string    { return "list" }
func (Quit) Name() string    { return "quit" }
func (Help) Name() string    { return "help" }
func (Invalid) Name() string { return "invalid" }
