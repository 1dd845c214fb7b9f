package domain

import "strings"

// ChannelMarker prefixes every channel name.
const ChannelMarker = "#"

type ChannelName string

// IsChannelName reports whether s refers to a channel rather than a user.
func IsChannelName(s string) bool {
	return strings.HasPrefix(s, ChannelMarker)
}

// Bare returns the name without its marker, as used in HTTP paths.
func (n ChannelName) Bare() string {
	return strings.TrimPrefix(string(n), ChannelMarker)
}

// ChannelFromBare restores a channel name taken from an HTTP path.
func ChannelFromBare(s string) ChannelName {
	return ChannelName(ChannelMarker + s)
}
