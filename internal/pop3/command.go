package pop3

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ConnectionLogger is the interface for accessing the logger from commands.
type ConnectionLogger interface {
	Logger() *slog.Logger
}

// Command represents a POP3 command that can be executed.
type Command interface {
	// Name returns the command name (e.g., "USER", "PASS", "QUIT").
	Name() string

	// Execute processes the command and returns a response.
	// The response should not include the +OK or -ERR prefix.
	Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error)
}

// Response represents a POP3 response to a command.
type Response struct {
	// OK indicates success (+OK) or failure (-ERR).
	OK bool

	// Message is the response message (without +OK/-ERR prefix).
	Message string

	// Lines contains multi-line response data (for RETR and LIST).
	// If non-nil, the lines are sent after the status line, dot-stuffed,
	// and terminated by a line containing exactly ".". An empty non-nil
	// slice yields just the terminator.
	Lines []string
}

// String formats the response as a POP3 protocol string.
func (r Response) String() string {
	var sb strings.Builder

	if r.OK {
		sb.WriteString("+OK")
	} else {
		sb.WriteString("-ERR")
	}

	if r.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(r.Message)
	}

	sb.WriteString("\r\n")

	if r.Lines != nil {
		for _, line := range r.Lines {
			// Byte-stuff lines that start with "."
			if strings.HasPrefix(line, ".") {
				sb.WriteString(".")
			}
			sb.WriteString(line)
			sb.WriteString("\r\n")
		}
		sb.WriteString(".\r\n")
	}

	return sb.String()
}

// errNotInState builds the standard state-mismatch error response.
func errNotInState(expected State) Response {
	return Response{OK: false, Message: fmt.Sprintf("Session not in %s state", expected)}
}

// commandRegistry holds all registered commands.
var commandRegistry = make(map[string]Command)

// RegisterCommand registers a command in the registry.
func RegisterCommand(cmd Command) {
	commandRegistry[strings.ToUpper(cmd.Name())] = cmd
}

// GetCommand retrieves a command from the registry by name.
func GetCommand(name string) (Command, bool) {
	cmd, ok := commandRegistry[strings.ToUpper(name)]
	return cmd, ok
}

// ParseCommand parses a POP3 command line into command name and arguments.
// The verb is case-insensitive; arguments are case-sensitive. Returns an
// error for a blank line.
func ParseCommand(line string) (string, []string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, fmt.Errorf("empty command")
	}

	parts := strings.Fields(line)
	cmdName := strings.ToUpper(parts[0])
	args := parts[1:]

	return cmdName, args, nil
}
