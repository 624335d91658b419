package terminal

import (
	"errors"
	"strconv"
	"strings"
)

type CommandKind int

const (
	// CommandInput is a snapshot of the search box text.
	CommandInput CommandKind = iota
	CommandAdd
	CommandQuit
)

// Command is one parsed line of user input.
type Command struct {
	Kind      CommandKind
	Text      string
	Position  int   // CommandAdd: 1-based result position
	VariantID int64 // CommandAdd: explicit variant, 0 picks the first available
}

var ErrUsage = errors.New("usage: :add N [VARIANT_ID] | :quit")

// ParseCommand reads a line. Lines starting with ':' are commands, anything
// else is the new content of the search box.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, ":") {
		return Command{Kind: CommandInput, Text: line}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Command{}, ErrUsage
	}
	switch fields[0] {
	case "q", "quit":
		return Command{Kind: CommandQuit}, nil
	case "add":
		if len(fields) < 2 || len(fields) > 3 {
			return Command{}, ErrUsage
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil || pos < 1 {
			return Command{}, ErrUsage
		}
		cmd := Command{Kind: CommandAdd, Position: pos}
		if len(fields) == 3 {
			id, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil || id <= 0 {
				return Command{}, ErrUsage
			}
			cmd.VariantID = id
		}
		return cmd, nil
	}
	return Command{}, ErrUsage
}
