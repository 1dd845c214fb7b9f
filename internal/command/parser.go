package command

import (
	"strings"

	"github.com/dkeye/relay/internal/domain"
)

// Parse tokenizes line on whitespace and validates arity per command.
// Names are case-sensitive. It never fails: bad input yields Invalid.
func Parse(line string) Command {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Invalid{}
	}
	name, args := tokens[0], tokens[1:]

	switch name {
	case "msg":
		if len(args) < 2 {
			return Invalid{}
		}
		return Msg{Target: args[0], Text: strings.Join(args[1:], " ")}
	case "nick":
		switch len(args) {
		case 0:
			return Nick{}
		case 1:
			return Nick{Nickname: args[0]}
		}
	case "join":
		if ch, ok := channelArg(args); ok {
			return Join{Channel: ch}
		}
	case "part":
		if ch, ok := channelArg(args); ok {
			return Part{Channel: ch}
		}
	case "list":
		if len(args) == 0 {
			return List{}
		}
	case "quit":
		if len(args) == 0 {
			return Quit{}
		}
	case "help":
		if len(args) == 0 {
			return Help{}
		}
	}
	return Invalid{}
}

func channelArg(args []string) (domain.ChannelName, bool) {
	if len(args) != 1 || !domain.IsChannelName(args[0]) {
		return "", false
	}
	return domain.ChannelName(args[0]), true
}
