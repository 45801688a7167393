// Package httpproto holds the parsed request record and the outgoing
// response record, including the response's wire serialization.
package httpproto

import (
	"github.com/silentbot/wschatd/internal/httpmsg"
	"github.com/silentbot/wschatd/internal/pool"
)

var requestPool = pool.New(func() *Request { return &Request{} })

// AcquireRequest returns a Request ready for a new connection, reused
// from the pool when possible.
func AcquireRequest() *Request {
	return requestPool.Get()
}

// ReleaseRequest resets req and returns it to the pool. Callers must not
// touch req again afterward.
func ReleaseRequest(req *Request) {
	req.Reset()
	requestPool.Put(req)
}

// Request is the parsed HTTP request head. It is created empty by the
// session, mutated only by the parser, and never touched again once the
// parser reports Ok, Bad, or the session gives up on it.
//
// The parser pushes bytes directly onto the in-progress field (method,
// URI, or the current header's name/value) the same way the original
// mutated its request struct one character at a time; Request owns the
// token scratch buffers so the parser itself keeps only its state enum
// and the small fixed array it matches "HTTP/" against.
type Request struct {
	Method       string
	URI          string
	VersionMajor uint8
	VersionMinor uint8
	Headers      []httpmsg.Header

	methodBuf []byte
	uriBuf    []byte
	nameBuf   []byte
	valueBuf  []byte
}

// Reset clears r back to its zero state so a pooled Request can be reused
// for the next connection.
func (r *Request) Reset() {
	r.Method = ""
	r.URI = ""
	r.VersionMajor = 0
	r.VersionMinor = 0
	r.Headers = r.Headers[:0]
	r.methodBuf = r.methodBuf[:0]
	r.uriBuf = r.uriBuf[:0]
	r.nameBuf = r.nameBuf[:0]
	r.valueBuf = r.valueBuf[:0]
}

// Header looks up a header by exact, case-sensitive name — the same
// matching discipline the wire-level Upgrade check in §4.2 needs.
func (r *Request) Header(name string) (string, bool) {
	return httpmsg.Find(r.Headers, name)
}

// IsWebsocketUpgrade reports whether the request carries an exact
// "Upgrade: websocket" header, per the session's upgrade-detection rule.
func (r *Request) IsWebsocketUpgrade() bool {
	v, ok := r.Header("Upgrade")
	return ok && v == "websocket"
}

// AppendMethodByte pushes one byte onto the method token being assembled.
func (r *Request) AppendMethodByte(b byte) { r.methodBuf = append(r.methodBuf, b) }

// CommitMethod finalizes the method token.
func (r *Request) CommitMethod() { r.Method = string(r.methodBuf) }

// AppendURIByte pushes one byte onto the URI token being assembled.
func (r *Request) AppendURIByte(b byte) { r.uriBuf = append(r.uriBuf, b) }

// CommitURI finalizes the URI token.
func (r *Request) CommitURI() { r.URI = string(r.uriBuf) }

// AppendHeaderNameByte pushes one byte onto the header name being
// assembled.
func (r *Request) AppendHeaderNameByte(b byte) { r.nameBuf = append(r.nameBuf, b) }

// AppendHeaderValueByte pushes one byte onto the header value being
// assembled.
func (r *Request) AppendHeaderValueByte(b byte) { r.valueBuf = append(r.valueBuf, b) }

// CommitHeader finalizes the header currently being assembled, appends it
// to the ordered header list, and resets the name/value scratch buffers
// for the next header line. The name and value are copied out of the
// scratch buffers (not aliased via bunsafe.B2S) because those buffers are
// reused for the very next header.
func (r *Request) CommitHeader() {
	r.Headers = append(r.Headers, httpmsg.Header{
		Name:  string(r.nameBuf),
		Value: string(r.valueBuf),
	})
	r.nameBuf = r.nameBuf[:0]
	r.valueBuf = r.valueBuf[:0]
}
