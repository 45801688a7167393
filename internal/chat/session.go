package chat

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/silentbot/wschatd/log"
)

// wsConn is the slice of *websocket.Conn that Session and connWriter
// depend on. Depending on this narrow interface instead of the
// concrete type lets tests drive Run, handleFrame, and cleanup against
// a fake connection instead of a live websocket handshake.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	CloseNow() error
}

// connWriter adapts a wsConn into the registry's writer interface. It
// owns its own mutex because both the session's reader loop and other
// sessions' broadcast goroutines send through the same underlying
// connection.
type connWriter struct {
	mu   sync.Mutex
	conn wsConn
}

func (w *connWriter) writeText(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(context.Background(), websocket.MessageText, []byte(msg))
}

// readResult carries the outcome of one websocket read from readLoop to
// Run's event loop, which receives them one at a time over a channel.
type readResult struct {
	data []byte
	err  error
}

// Session is one connected chat client: its socket, its shared writer
// handle, the registry it will register into, and its own nickname
// (unset until a nick command arrives). writer is typed as the
// registry's writer interface rather than the concrete *connWriter so
// tests can drive Session's own methods against a fake.
type Session struct {
	id       string
	conn     wsConn
	writer   writer
	registry *Registry
	nick     string
}

// Accept upgrades conn — handed off by the HTTP session with the
// upgrade request's bytes still unconsumed — to a WebSocket connection,
// then sends the USAGE banner. It re-parses the handshake through
// net/http's own reader rather than reusing the httpproto parse, since
// websocket.Accept needs a genuine http.Request and http.Hijacker pair.
func Accept(conn net.Conn, registry *Registry) (*Session, error) {
	br := bufio.NewReader(conn)
	httpReq, err := http.ReadRequest(br)
	if err != nil {
		return nil, err
	}

	rw := &hijackResponseWriter{conn: &reReadConn{Conn: conn, br: br}}
	c, err := websocket.Accept(rw, httpReq, nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		conn:     c,
		writer:   &connWriter{conn: c},
		registry: registry,
	}

	if err := s.writer.writeText(Usage); err != nil {
		c.CloseNow()
		return nil, err
	}

	return s, nil
}

// Run drives the session's event loop until the connection closes, the
// client sends a Close frame, or a read error occurs. It always cleans
// up the registry entry (if any) before returning.
func (s *Session) Run(ctx context.Context) {
	defer s.cleanup()

	recv := make(chan readResult)
	go s.readLoop(ctx, recv)

	for {
		result, ok := <-recv
		if !ok {
			return
		}
		if result.err != nil {
			status := websocket.CloseStatus(result.err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Debug().Msgf("chat[%s]: session closed by peer", s.id)
			} else {
				log.Debug().Msgf("chat[%s]: read error: %v", s.id, result.err)
			}
			return
		}

		s.handleFrame(result.data)
	}
}

// readLoop blocks on websocket reads and republishes each one on recv,
// so Run's select-free loop never blocks on the socket directly. It
// exits (closing recv) once a read fails.
func (s *Session) readLoop(ctx context.Context, recv chan<- readResult) {
	defer close(recv)
	for {
		_, data, err := s.conn.Read(ctx)
		recv <- readResult{data: data, err: err}
		if err != nil {
			return
		}
	}
}

func (s *Session) handleFrame(data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		s.reply(replyCommandNotSupported)
		return
	}

	switch cmd.MessageType {
	case CommandNick:
		s.handleNick(cmd.Nick)
	case CommandChat:
		s.handleChat(cmd.Message)
	case CommandPrivate:
		s.handlePrivate(cmd.Receiver, cmd.Message)
	case CommandHelp:
		s.reply(Usage)
	case CommandQuit:
		s.handleQuit()
	default:
		s.reply(replyCommandNotSupported)
	}
}

func (s *Session) handleNick(nick string) {
	if s.nick != "" {
		return
	}
	s.nick = nick
	s.registry.Register(nick, s.writer)
	s.reply(replyHello(nick))
}

func (s *Session) handleChat(message string) {
	if s.nick == "" {
		s.reply(replySetNicknameFirst)
		return
	}
	if !s.registry.Allow(s.nick) {
		s.reply(replyTooFast)
		return
	}
	s.registry.Broadcast(s.nick, message, func(nick string, err error) {
		log.Warn().Msgf("chat[%s]: broadcast to %s failed: %v", s.id, nick, err)
	})
}

func (s *Session) handlePrivate(receiver, message string) {
	w, ok := s.registry.Lookup(receiver)
	if !ok {
		s.reply(replyNotConnected(receiver))
		return
	}
	if err := w.writeText(message); err != nil {
		log.Warn().Msgf("chat[%s]: private message to %s failed: %v", s.id, receiver, err)
	}
}

func (s *Session) handleQuit() {
	if s.nick == "" {
		s.reply(replyLeaveImpossible)
		return
	}
	s.reply(replyLeft)
	s.registry.Unregister(s.nick)
	s.nick = ""
}

func (s *Session) reply(msg string) {
	if err := s.writer.writeText(msg); err != nil {
		log.Debug().Msgf("chat[%s]: reply failed: %v", s.id, err)
	}
}

func (s *Session) cleanup() {
	if s.nick != "" {
		s.registry.Unregister(s.nick)
	}
	s.conn.CloseNow()
}

// reReadConn wraps a net.Conn so that Read replays whatever http.ReadRequest
// buffered but did not consume before returning it as the hijacked
// connection — the same "nothing the head-parser peeked is lost" discipline
// internal/httpsession uses for its own handoff.
type reReadConn struct {
	net.Conn
	br *bufio.Reader
}

func (c *reReadConn) Read(p []byte) (int, error) { return c.br.Read(p) }

// hijackResponseWriter is a minimal http.ResponseWriter/http.Hijacker
// backed by a raw net.Conn, letting the raw-socket HTTP layer hand off
// to websocket.Accept (which expects the net/http handshake shape)
// without ever running a real net/http server.
type hijackResponseWriter struct {
	conn   net.Conn
	header http.Header
	status int
}

func (w *hijackResponseWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *hijackResponseWriter) Write(b []byte) (int, error) {
	return w.conn.Write(b)
}

func (w *hijackResponseWriter) WriteHeader(status int) {
	w.status = status
}

func (w *hijackResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw := bufio.NewReadWriter(bufio.NewReader(w.conn), bufio.NewWriter(w.conn))
	return w.conn, rw, nil
}
