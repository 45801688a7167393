// Package httpsession implements the per-connection peek/drain/dispatch
// contract (component G): it feeds the parser from a non-destructive
// read loop, then either drains exactly what it peeked and dispatches
// through the router, or leaves the socket untouched and hands it back
// for a WebSocket upgrade.
package httpsession

import (
	"bufio"
	"errors"
	"net"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/silentbot/wschatd/internal/httpproto"
	"github.com/silentbot/wschatd/internal/parser"
	"github.com/silentbot/wschatd/internal/router"
	"github.com/silentbot/wschatd/log"
)

// maxHead bounds how large a request head the peek buffer can hold. A
// head that never completes within this many bytes surfaces as a
// socket error rather than growing the buffer without limit.
const maxHead = 64 * 1024

// Sentinel errors forming the session's error taxonomy. Only
// ErrWebsocketProtocol is "recovered" by the caller; the others end the
// connection after being logged.
var (
	ErrWebsocketProtocol = errors.New("httpsession: request is a websocket upgrade")
	ErrParseRequest      = errors.New("httpsession: malformed request")
	ErrSocketConnection  = errors.New("httpsession: socket error")
)

// peekConn wraps a net.Conn so that Read is served from a bufio.Reader
// whose buffered-but-undiscarded bytes survive a handoff to another
// protocol layer. Everything the HTTP session peeked and did not
// explicitly Discard is still there for the next reader.
type peekConn struct {
	net.Conn
	br *bufio.Reader
}

func (c *peekConn) Read(p []byte) (int, error) { return c.br.Read(p) }

// Handle runs the handle_socket contract against conn. On a plain HTTP
// request it writes the response itself and returns (nil, nil). On a
// WebSocket upgrade request it returns a net.Conn with the handshake
// bytes still unconsumed and ErrWebsocketProtocol. Any other outcome
// returns a nil conn and one of the sentinel errors.
func Handle(conn net.Conn, r *router.Router, headerTimeout time.Duration) (net.Conn, error) {
	connID := uuid.NewString()

	if headerTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(headerTimeout)); err != nil {
			return nil, ErrSocketConnection
		}
	}

	br := bufio.NewReaderSize(conn, maxHead)
	req := httpproto.AcquireRequest()
	p := parser.New()

	total := 0
	result := parser.Indeterminate
	for result == parser.Indeterminate {
		// Ask for everything bufio already has on hand, or, once all of
		// that has been parsed, for exactly one byte more. bufio.Reader.Peek blocks
		// until it can satisfy the requested count, so asking for a
		// generous fixed chunk (e.g. 1024 bytes) would stall the
		// connection whenever the client sends a short head and then
		// waits for the response instead of sending more.
		want := total + 1
		if avail := br.Buffered(); avail > want {
			want = avail
		}
		data, peekErr := br.Peek(want)
		if len(data) == 0 {
			log.Debug().Msgf("httpsession[%s]: peek returned no bytes: %v", connID, peekErr)
			return nil, ErrSocketConnection
		}

		fresh := data[total:]
		if !utf8.Valid(fresh) {
			return nil, ErrParseRequest
		}

		result = p.Execute(req, fresh)
		total = len(data)

		if result == parser.Indeterminate && peekErr != nil {
			// Either the stream ended before the head completed, or the
			// head outgrew the peek buffer (bufio.ErrBufferFull). Both
			// are unrecoverable for this connection.
			log.Debug().Msgf("httpsession[%s]: stream ended mid-head: %v", connID, peekErr)
			return nil, ErrSocketConnection
		}
	}

	if result == parser.Bad {
		return nil, ErrParseRequest
	}

	if headerTimeout > 0 {
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, ErrSocketConnection
		}
	}

	if req.IsWebsocketUpgrade() {
		log.Debug().Msgf("httpsession[%s]: upgrading to websocket", connID)
		httpproto.ReleaseRequest(req)
		return &peekConn{Conn: conn, br: br}, ErrWebsocketProtocol
	}

	if _, err := br.Discard(total); err != nil {
		httpproto.ReleaseRequest(req)
		return nil, ErrSocketConnection
	}

	resp := httpproto.AcquireResponse()
	r.Handle(req, resp)
	httpproto.ReleaseRequest(req)

	if _, err := conn.Write(resp.Bytes()); err != nil {
		log.Warn().Msgf("httpsession[%s]: write response: %v", connID, err)
	}
	httpproto.ReleaseResponse(resp)

	return nil, nil
}
