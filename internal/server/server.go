// Package server implements the accept loop (component I): bind a
// listener, spawn a goroutine per connection that runs the HTTP session
// and, on a detected WebSocket upgrade, hands the same socket to a chat
// session backed by the shared client registry.
package server

import (
	"context"
	"errors"
	"net"

	"github.com/silentbot/wschatd/internal/chat"
	"github.com/silentbot/wschatd/internal/config"
	"github.com/silentbot/wschatd/internal/httpsession"
	"github.com/silentbot/wschatd/internal/router"
	"github.com/silentbot/wschatd/log"
)

// Server owns the listener and the state every connection shares: the
// routing table and the chat client registry.
type Server struct {
	cfg      config.Config
	router   *router.Router
	registry *chat.Registry
}

// New builds a Server ready to Run.
func New(cfg config.Config, r *router.Router) *Server {
	return &Server{
		cfg:      cfg,
		router:   r,
		registry: chat.NewRegistry(),
	}
}

// Run binds cfg.ListenAddr and accepts connections until ctx is
// cancelled, at which point it stops accepting new connections and
// returns. In-flight connections are not forcibly drained, matching
// §5's "no explicit graceful-drain" statement.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("server: shutting down, closing listener")
		ln.Close()
	}()

	log.Info().Msgf("server: listening on %s", s.cfg.ListenAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn().Msgf("server: accept: %v", err)
			continue
		}

		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("server: recovered panic in connection handler: %v", r)
			conn.Close()
		}
	}()

	upgraded, err := httpsession.Handle(conn, s.router, s.cfg.ReadHeaderTimeout)
	switch {
	case errors.Is(err, httpsession.ErrWebsocketProtocol):
		s.runChatSession(ctx, upgraded)
	case err != nil:
		log.Debug().Msgf("server: http session ended: %v", err)
		conn.Close()
	default:
		conn.Close()
	}
}

func (s *Server) runChatSession(ctx context.Context, conn net.Conn) {
	session, err := chat.Accept(conn, s.registry)
	if err != nil {
		log.Warn().Msgf("server: websocket handshake failed: %v", err)
		conn.Close()
		return
	}
	session.Run(ctx)
}
