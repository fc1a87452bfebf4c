package server

import (
	"bufio"
	"net"
	"sync/atomic"
	"time"
)

// Connection wraps a client socket with buffered I/O and deadline
// management. All POP3 protocol I/O goes through Reader/Writer; the writer
// must be flushed after every complete reply.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	commandTimeout time.Duration
	idleTimeout    time.Duration

	closed atomic.Bool
}

// NewConnection wraps a net.Conn with buffered I/O and the given timeouts.
func NewConnection(conn net.Conn, commandTimeout, idleTimeout time.Duration) *Connection {
	return &Connection{
		conn:           conn,
		reader:         bufio.NewReader(conn),
		writer:         bufio.NewWriter(conn),
		commandTimeout: commandTimeout,
		idleTimeout:    idleTimeout,
	}
}

// Reader returns the buffered reader for the connection.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// Writer returns the buffered writer for the connection.
func (c *Connection) Writer() *bufio.Writer {
	return c.writer
}

// Flush flushes any buffered output to the client.
func (c *Connection) Flush() error {
	return c.writer.Flush()
}

// SetIdleDeadline arms the read deadline for waiting on the next command.
func (c *Connection) SetIdleDeadline() error {
	if c.idleTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
}

// SetCommandDeadline arms the write deadline for sending a reply.
func (c *Connection) SetCommandDeadline() error {
	if c.commandTimeout <= 0 {
		return nil
	}
	return c.conn.SetWriteDeadline(time.Now().Add(c.commandTimeout))
}

// RemoteAddr returns the remote address of the connection.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}
