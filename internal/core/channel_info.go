package core

import (
	"github.com/dkeye/relay/internal/domain"
)

// ChannelInfo is a read-only view for listings (no transport fields).
type ChannelInfo struct {
	Name        domain.ChannelName `json:"name"`
	MemberCount int                `json:"members"`
}
