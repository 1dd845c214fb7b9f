// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

// DefaultNickname is the display name every user starts with.
const DefaultNickname = "User"

type UserID string

// User is the display identity of one connection. Nicknames are not unique.
type User struct {
	ID       UserID `json:"id"`
	Nickname string `json:"nickname"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// An empty nickname falls back to DefaultNickname.
func NewUser(nickname string) *User {
	if nickname == "" {
		nickname = DefaultNickname
	}
	return &User{ID: UserID(uuid.NewString()), Nickname: nickname}
}

// SetNickname replaces the nickname without any validation.
func (u *User) SetNickname(nickname string) {
	u.Nickname = nickname
}
