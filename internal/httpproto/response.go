package httpproto

import (
	"strconv"

	"github.com/silentbot/wschatd/internal/httpmsg"
	"github.com/silentbot/wschatd/internal/pool"
	"github.com/valyala/bytebufferpool"
)

var responsePool = pool.New(func() *Response { return &Response{} })

// AcquireResponse returns a Response ready for a new connection, reused
// from the pool when possible.
func AcquireResponse() *Response {
	return responsePool.Get()
}

// ReleaseResponse resets resp and returns it to the pool. Callers must
// not touch resp again afterward.
func ReleaseResponse(resp *Response) {
	resp.Reset()
	responsePool.Put(resp)
}

// Response is the outgoing status line + headers + body. Bytes
// produces the exact wire bytes described in §3: the status line, each
// header, a blank line, then the body.
type Response struct {
	StatusCode int
	Reason     string
	Headers    []httpmsg.Header
	Body       []byte
}

// Reset clears resp back to its zero state so it can be reused.
func (resp *Response) Reset() {
	resp.StatusCode = 0
	resp.Reason = ""
	resp.Headers = resp.Headers[:0]
	resp.Body = nil
}

// SetHeader appends a header to the response. Unlike httpmsg.Header
// lookups, responses never need to dedupe, since every handler sets each
// header at most once.
func (resp *Response) SetHeader(name, value string) {
	resp.Headers = append(resp.Headers, httpmsg.Header{Name: name, Value: value})
}

// reasonText maps the status codes this server actually emits to their
// reason phrase. The original source misspells 500's reason as "Internal
// Server Errror"; this implementation spells it correctly, as §6 asks.
func reasonText(code int) string {
	switch code {
	case 200:
		return "Ok"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// NewResponse builds a Response with the reason phrase filled in from the
// status code.
func NewResponse(statusCode int, headers []httpmsg.Header, body []byte) *Response {
	return &Response{
		StatusCode: statusCode,
		Reason:     reasonText(statusCode),
		Headers:    headers,
		Body:       body,
	}
}

// Bytes serializes the response to its wire form. It assembles the bytes
// in a pooled buffer and returns a fresh copy, so the returned slice
// stays valid after the buffer goes back to the pool.
func (resp *Response) Bytes() []byte {
	if resp.Reason == "" {
		resp.Reason = reasonText(resp.StatusCode)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(resp.StatusCode))
	buf.WriteString(" ")
	buf.WriteString(resp.Reason)
	buf.WriteString("\r\n")

	for _, h := range resp.Headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")
	buf.Write(resp.Body)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}
