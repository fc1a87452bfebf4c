package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/driftmail/popd/internal/config"
	"github.com/driftmail/popd/internal/logging"
)

// Server coordinates the configured listeners and hands accepted
// connections to the protocol handler.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler ConnectionHandler
	limiter *ConnectionLimiter

	mu        sync.Mutex
	listeners []*Listener
}

// Config holds configuration for creating a new Server.
type Config struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(sc Config) (*Server, error) {
	if sc.Cfg == nil {
		return nil, errors.New("server config is required")
	}

	logger := sc.Logger
	if logger == nil {
		logger = logging.NewLogger(sc.Cfg.LogLevel)
	}

	return &Server{
		cfg:     sc.Cfg,
		logger:  logger,
		limiter: NewConnectionLimiter(sc.Cfg.Limits.MaxConnections),
	}, nil
}

// SetHandler sets the connection handler for all listeners.
// Must be called before Run.
func (s *Server) SetHandler(handler ConnectionHandler) {
	s.handler = handler
}

// Run starts all configured listeners and blocks until the context is
// cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("no connection handler set")
	}

	s.mu.Lock()
	for _, lc := range s.cfg.Listeners {
		s.listeners = append(s.listeners, NewListener(ListenerConfig{
			Address:        lc.Address,
			CommandTimeout: s.cfg.Timeouts.CommandTimeout(),
			IdleTimeout:    s.cfg.Timeouts.IdleTimeout(),
			Limiter:        s.limiter,
			Logger:         s.logger,
			Handler:        s.handler,
		}))
	}
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Info("starting server",
		slog.String("hostname", s.cfg.Hostname),
		slog.Int("listener_count", len(listeners)),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			if err := l.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("listener %s: %w", l.Address(), err)
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info("server stopped")
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown closes all listen sockets, causing Run to return.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		_ = l.Close()
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
