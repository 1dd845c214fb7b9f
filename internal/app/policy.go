package app

import "github.com/dkeye/relay/internal/core"

type BackpressureAction int

const (
	DropLine BackpressureAction = iota
	Disconnect
)

// Policy decides what happens to a recipient whose outbound buffer is full.
type Policy interface {
	OnBackPressure(s core.Session) BackpressureAction
}

// DropPolicy loses the line for that recipient only.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.Session) BackpressureAction {
	return DropLine
}

// DisconnectPolicy closes slow consumers.
type DisconnectPolicy struct{}

func (DisconnectPolicy) OnBackPressure(core.Session) BackpressureAction {
	return Disconnect
}

// PolicyFor maps the slow_consumer config value to a Policy.
func PolicyFor(name string) Policy {
	if name == "disconnect" {
		return DisconnectPolicy{}
	}
	return DropPolicy{}
}
