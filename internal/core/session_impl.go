package core

import "github.com/dkeye/relay/internal/domain"

// session implements Session by pairing meta + transport.
type session struct {
	id   SessionID
	user *domain.User
	conn Conn
}

func NewSession(id SessionID, user *domain.User, conn Conn) Session {
	return &session{id: id, user: user, conn: conn}
}

func (s *session) ID() SessionID      { return s.id }
func (s *session) User() *domain.User { return s.user }
func (s *session) Conn() Conn         { return s.conn }
