package pop3

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/driftmail/popd/internal/logging"
	"github.com/driftmail/popd/internal/metrics"
	"github.com/driftmail/popd/internal/server"
)

// Greeting is the banner sent on session start.
const Greeting = "+OK POP3 server ready\r\n"

// connLogger adapts a slog.Logger to the ConnectionLogger interface passed
// to commands.
type connLogger struct {
	logger *slog.Logger
}

func (c connLogger) Logger() *slog.Logger {
	return c.logger
}

// Handler creates a POP3 protocol handler wired to the given collaborators.
// The lock table must be shared by all handlers of the same mail store.
func Handler(auth AuthStore, locks *LockTable, store MailStore, collector metrics.Collector) server.ConnectionHandler {
	RegisterAuthCommands(auth, locks, store, collector)
	RegisterTransactionCommands(store, collector)

	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, store, collector)
	}
}

// handleConnection manages a single POP3 session: greeting, command loop,
// and the UPDATE commit after QUIT. The mailbox lock is released on every
// exit path; an abrupt close skips UPDATE and discards marked deletions.
func handleConnection(ctx context.Context, conn *server.Connection, store MailStore, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened()
	defer collector.ConnectionClosed()

	sess := NewSession()
	defer sess.Cleanup()

	if err := writeReply(conn, Greeting); err != nil {
		logger.Error("failed to send greeting", "error", err.Error())
		return
	}

	clog := connLogger{logger: logger}

	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, closing connection")
			return
		default:
		}

		if err := conn.SetIdleDeadline(); err != nil {
			logger.Error("failed to set idle deadline", "error", err.Error())
			return
		}

		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err == io.EOF {
				logger.Info("client closed connection", "state", sess.State().String())
			} else {
				logger.Error("error reading command", "error", err.Error())
			}
			return
		}

		logger.Debug("received command", "line", strings.TrimRight(line, "\r\n"))

		cmdName, args, err := ParseCommand(line)
		if err != nil {
			if werr := writeReply(conn, Response{OK: false, Message: "Unknown command"}.String()); werr != nil {
				return
			}
			continue
		}

		cmd, ok := GetCommand(cmdName)
		if !ok {
			if werr := writeReply(conn, Response{OK: false, Message: "Unknown command"}.String()); werr != nil {
				return
			}
			continue
		}

		collector.CommandProcessed(cmdName)

		resp, err := cmd.Execute(ctx, sess, clog, args)
		if err != nil {
			logger.Error("command execution error",
				"command", cmdName,
				"error", err.Error())
			if werr := writeReply(conn, Response{OK: false, Message: "Internal server error"}.String()); werr != nil {
				return
			}
			continue
		}

		if err := writeReply(conn, resp.String()); err != nil {
			logger.Error("failed to send response", "error", err.Error())
			return
		}

		if cmdName == "PASS" {
			collector.AuthAttempt(resp.OK)
		}

		if cmdName == "QUIT" {
			// The +OK reply precedes the commit; commit failures are
			// logged, not reported to the client.
			if sess.State() == StateUpdate {
				removed := sess.Mailbox().CommitDeletes(ctx, store, logger)
				if removed > 0 {
					logger.Info("expunged messages", "count", removed)
				}
			}
			logger.Info("QUIT received, closing connection")
			return
		}
	}
}

// writeReply sends one complete reply and flushes the writer.
func writeReply(conn *server.Connection, reply string) error {
	if err := conn.SetCommandDeadline(); err != nil {
		return err
	}
	if _, err := conn.Writer().WriteString(reply); err != nil {
		return err
	}
	return conn.Flush()
}
