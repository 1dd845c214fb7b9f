package core

import "github.com/dkeye/relay/internal/domain"

type SessionID string

// Session binds a domain.User and its transport endpoint.
// This is what the registry stores and channels fan out to.
type Session interface {
	ID() SessionID
	User() *domain.User
	Conn() Conn
}

// Delivery is one line addressed to one session.
type Delivery struct {
	To    Session
	Frame Frame
}

// To builds a Delivery from text.
func To(s Session, line string) Delivery {
	return Delivery{To: s, Frame: Frame(line)}
}
