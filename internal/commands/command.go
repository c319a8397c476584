// Package commands parses the text commands the chat transport forwards to
// the engine and routes them to configured handlers.
package commands

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeStart Type = "start"
	TypeHelp  Type = "help"
	TypeList  Type = "list"
	TypeClear Type = "clear"
)

type ErrorCode string

const (
	ErrCodeEmptyInput     ErrorCode = "empty_input"
	ErrCodeUnknownCommand ErrorCode = "unknown_command"
	ErrCodeHandlerMissing ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Command struct {
	Type Type
	Raw  string

	// OwnerID is attached by the transport before execution; parsing never
	// sees it.
	OwnerID string
}

// Parse recognizes a transport command line. A leading slash is optional and
// the verb is case-insensitive; trailing arguments are ignored, matching how
// chat clients append bot mentions.
func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	stripped := strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if stripped == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	head := strings.ToLower(strings.Fields(stripped)[0])
	// Strip a bot mention suffix like "list@binday_bot".
	if at := strings.IndexByte(head, '@'); at > 0 {
		head = head[:at]
	}

	switch Type(head) {
	case TypeStart, TypeHelp, TypeList, TypeClear:
		return Command{Type: Type(head), Raw: raw}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}
