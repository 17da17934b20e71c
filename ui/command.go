package ui

import (
	"fmt"
	"strings"
)

type CommandKind int

const (
	CmdSend CommandKind = iota
	CmdCreate
	CmdJoin
	CmdRooms
	CmdLeave
	CmdStats
	CmdHelp
	CmdQuit
)

// Command is one parsed input line. Text is set for CmdSend,
// PIN and Address for CmdJoin.
type Command struct {
	Kind    CommandKind
	Text    string
	PIN     string
	Address string
}

var commandNames = map[string]CommandKind{
	"/create": CmdCreate,
	"/join":   CmdJoin,
	"/rooms":  CmdRooms,
	"/leave":  CmdLeave,
	"/stats":  CmdStats,
	"/help":   CmdHelp,
	"/quit":   CmdQuit,
	"/exit":   CmdQuit,
}

// CommandNames is used for prompt completion.
func CommandNames() []string {
	return []string{"/create", "/join", "/rooms", "/leave", "/stats", "/help", "/quit"}
}

// ParseCommand turns an input line into a Command. Lines not starting with "/"
// are messages; a message may start with "//" to send a literal slash.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") {
		return Command{Kind: CmdSend, Text: trimmed[1:]}, nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdSend, Text: line}, nil
	}

	fields := strings.Fields(trimmed)
	kind, ok := commandNames[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	args := fields[1:]

	switch kind {
	case CmdJoin:
		if len(args) < 1 || len(args) > 2 {
			return Command{}, fmt.Errorf("usage: /join <pin> [ip]")
		}
		cmd := Command{Kind: CmdJoin, PIN: args[0]}
		if len(args) == 2 {
			cmd.Address = args[1]
		}
		return cmd, nil
	default:
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%s takes no argument", fields[0])
		}
		return Command{Kind: kind}, nil
	}
}
