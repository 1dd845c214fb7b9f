package domain

// Member is the read-only view of a channel participant.
// No transport or lifecycle logic here.
type Member struct {
	ID       UserID `json:"id"`
	Nickname string `json:"nickname"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User) Member {
	return Member{ID: user.ID, Nickname: user.Nickname}
}
