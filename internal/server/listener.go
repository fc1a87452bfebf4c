package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/driftmail/popd/internal/logging"
)

// ConnectionHandler processes one accepted connection. It runs in its own
// goroutine; when it returns, the connection is closed.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// ListenerConfig holds settings for a single TCP listener.
type ListenerConfig struct {
	Address        string
	CommandTimeout time.Duration
	IdleTimeout    time.Duration
	Limiter        *ConnectionLimiter
	Logger         *slog.Logger
	Handler        ConnectionHandler
}

// Listener accepts TCP connections on one address and spawns a session
// goroutine per connection.
type Listener struct {
	cfg ListenerConfig

	mu       sync.Mutex
	netLn    net.Listener
	sessions sync.WaitGroup
}

// NewListener creates a Listener from the given configuration.
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{cfg: cfg}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.cfg.Address
}

// Start binds the listen socket and accepts connections until the context is
// cancelled or the socket fails. It blocks; active sessions are awaited
// before it returns.
func (l *Listener) Start(ctx context.Context) error {
	netLn, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.netLn = netLn
	l.mu.Unlock()

	l.cfg.Logger.Info("listener started", slog.String("address", l.cfg.Address))

	// Close the socket when the context is cancelled to unblock Accept.
	go func() {
		<-ctx.Done()
		_ = netLn.Close()
	}()

	for {
		conn, err := netLn.Accept()
		if err != nil {
			l.sessions.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if l.cfg.Limiter != nil && !l.cfg.Limiter.TryAcquire() {
			l.cfg.Logger.Warn("connection refused: at capacity",
				slog.String("remote", conn.RemoteAddr().String()))
			_ = conn.Close()
			continue
		}

		l.sessions.Add(1)
		go l.serve(ctx, conn)
	}
}

// serve runs the handler for one connection and guarantees cleanup on every
// exit path, including handler panics.
func (l *Listener) serve(ctx context.Context, netConn net.Conn) {
	remote := netConn.RemoteAddr().String()
	logger := l.cfg.Logger.With(slog.String("remote", remote))

	conn := NewConnection(netConn, l.cfg.CommandTimeout, l.cfg.IdleTimeout)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("session panic", slog.Any("panic", r))
		}
		_ = conn.Close()
		if l.cfg.Limiter != nil {
			l.cfg.Limiter.Release()
		}
		logger.Info("session ended",
			slog.Duration("duration", time.Since(start)))
		l.sessions.Done()
	}()

	l.cfg.Handler(logging.WithContext(ctx, logger), conn)
}

// Close closes the listen socket, causing Start to return.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.netLn == nil {
		return nil
	}
	return l.netLn.Close()
}
