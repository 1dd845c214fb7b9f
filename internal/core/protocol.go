package core

import (
	"fmt"

	"github.com/dkeye/relay/internal/domain"
)

// Fixed replies of the line protocol.
const (
	Welcome             = "Welcome to chat server!"
	InvalidCommand      = "Invalid command!"
	ChannelDoesNotExist = "Channel does not exist."
	UserDoesNotExist    = "User does not exist."
)

// HelpLines is the command summary sent in reply to help.
var HelpLines = []string{
	"Commands:",
	"join #channel\t\tJoin the channel.",
	"part #channel\t\tPart the channel.",
	"msg #channel message\tSend message to channel.",
	"msg user message\tSend private message to user.",
	"list\t\t\tList available channels.",
	"nick name\t\tSet nickname to name.",
	"quit\t\t\tDisconnect from the server.",
}

func NicknameIs(name string) string { return fmt.Sprintf("Nickname is %s.", name) }

func NicknameSet(name string) string { return fmt.Sprintf("Nickname set to %s.", name) }

func Joined(ch domain.ChannelName) string { return fmt.Sprintf("You have joined %s.", ch) }

func Created(ch domain.ChannelName) string { return fmt.Sprintf("You have created %s.", ch) }

func AlreadyIn(ch domain.ChannelName) string { return fmt.Sprintf("You are already in %s.", ch) }

func Parted(ch domain.ChannelName) string { return fmt.Sprintf("You have parted %s.", ch) }

func NotIn(ch domain.ChannelName) string { return fmt.Sprintf("You are not in %s.", ch) }

func JoinNotice(ch domain.ChannelName, nick string) string {
	return fmt.Sprintf("[%s] %s has joined the channel.", ch, nick)
}

func LeaveNotice(ch domain.ChannelName, nick string) string {
	return fmt.Sprintf("[%s] %s has left the channel.", ch, nick)
}

func ChannelMessage(ch domain.ChannelName, sender, text string) string {
	return fmt.Sprintf("[%s] %s: %s", ch, sender, text)
}

func DirectMessage(sender, text string) string {
	return fmt.Sprintf("%s: %s", sender, text)
}

func ListEntry(info ChannelInfo) string {
	return fmt.Sprintf("%s [%d]", info.Name, info.MemberCount)
}
