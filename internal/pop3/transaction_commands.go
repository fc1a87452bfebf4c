package pop3

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/driftmail/popd/internal/metrics"
)

// parseMsgNum parses a message-number argument. On failure it returns the
// error response to send; values beyond the int range are clamped so the
// bounds check rejects them as out of range.
func parseMsgNum(arg string) (int, *Response) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, &Response{OK: false, Message: fmt.Sprintf("error parsing ID: %v", err)}
	}
	if id > uint64(math.MaxInt) {
		return math.MaxInt, nil
	}
	return int(id), nil
}

// msgNumError maps mailbox view errors to protocol replies.
func msgNumError(err error) Response {
	switch {
	case errors.Is(err, ErrMessageDeleted):
		return Response{OK: false, Message: "Message already deleted"}
	case errors.Is(err, ErrNoSuchMessage):
		return Response{OK: false, Message: "No such message"}
	default:
		return Response{OK: false, Message: err.Error()}
	}
}

// listCommand implements the LIST command (RFC 1939).
// Without arguments, lists all messages. With argument, lists one message.
type listCommand struct {
	collector metrics.Collector
}

func (l *listCommand) Name() string {
	return "LIST"
}

func (l *listCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return errNotInState(StateTransaction), nil
	}

	mailbox := sess.Mailbox()

	if len(args) == 0 {
		listings := mailbox.ListAll()
		lines := make([]string, len(listings))
		for i, e := range listings {
			lines[i] = fmt.Sprintf("%d %d", e.Num, e.Size)
		}
		l.collector.MessageListed()
		return Response{
			OK:      true,
			Message: fmt.Sprintf("%d messages (%d octets)", mailbox.Count(), mailbox.TotalSize()),
			Lines:   lines,
		}, nil
	}

	num, errResp := parseMsgNum(args[0])
	if errResp != nil {
		return *errResp, nil
	}

	entry, err := mailbox.Entry(num)
	if err != nil {
		return msgNumError(err), nil
	}

	return Response{OK: true, Message: fmt.Sprintf("%d %d", num, entry.Size)}, nil
}

// retrCommand implements the RETR command (RFC 1939).
// Retrieves and sends the full message content.
type retrCommand struct {
	store     MailStore
	collector metrics.Collector
}

func (r *retrCommand) Name() string {
	return "RETR"
}

func (r *retrCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return errNotInState(StateTransaction), nil
	}

	if len(args) < 1 {
		return Response{OK: false, Message: "RETR requires mail id"}, nil
	}

	num, errResp := parseMsgNum(args[0])
	if errResp != nil {
		return *errResp, nil
	}

	entry, err := sess.Mailbox().Entry(num)
	if err != nil {
		return msgNumError(err), nil
	}

	content, err := r.store.ReadMessage(ctx, entry.Path)
	if err != nil {
		conn.Logger().Error("failed to read message",
			"msg", num,
			"path", entry.Path,
			"error", err.Error())
		return Response{OK: false, Message: err.Error()}, nil
	}

	r.collector.MessageRetrieved(entry.Size)

	return Response{
		OK:      true,
		Message: fmt.Sprintf("%d octets", entry.Size),
		Lines:   splitMessageLines(string(content)),
	}, nil
}

// deleCommand implements the DELE command (RFC 1939).
// Marks a message for deletion; removal happens at UPDATE.
type deleCommand struct {
	collector metrics.Collector
}

func (d *deleCommand) Name() string {
	return "DELE"
}

func (d *deleCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return errNotInState(StateTransaction), nil
	}

	if len(args) < 1 {
		return Response{OK: false, Message: "DELE requires mail id"}, nil
	}

	num, errResp := parseMsgNum(args[0])
	if errResp != nil {
		return *errResp, nil
	}

	if err := sess.Mailbox().MarkDeleted(num); err != nil {
		return msgNumError(err), nil
	}

	d.collector.MessageDeleted()

	return Response{OK: true, Message: fmt.Sprintf("message %d deleted", num)}, nil
}

// rsetCommand implements the RSET command (RFC 1939).
// Unmarks all messages marked for deletion.
type rsetCommand struct{}

func (r *rsetCommand) Name() string {
	return "RSET"
}

func (r *rsetCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return errNotInState(StateTransaction), nil
	}

	sess.Mailbox().Reset()

	return Response{OK: true, Message: ""}, nil
}

// noopCommand implements the NOOP command (RFC 1939).
type noopCommand struct{}

func (n *noopCommand) Name() string {
	return "NOOP"
}

func (n *noopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() != StateTransaction {
		return errNotInState(StateTransaction), nil
	}

	return Response{OK: true, Message: "NOOP"}, nil
}

// splitMessageLines splits message content into lines for a multi-line
// response. Handles both LF and CRLF line endings; the Response formatter
// re-adds CRLF and performs dot-stuffing.
func splitMessageLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	rawLines := strings.Split(content, "\n")

	// Drop the empty element produced by a trailing newline.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	return rawLines
}

// RegisterTransactionCommands registers all transaction-phase commands.
func RegisterTransactionCommands(store MailStore, collector metrics.Collector) {
	RegisterCommand(&listCommand{collector: collector})
	RegisterCommand(&retrCommand{store: store, collector: collector})
	RegisterCommand(&deleCommand{collector: collector})
	RegisterCommand(&rsetCommand{})
	RegisterCommand(&noopCommand{})
}
