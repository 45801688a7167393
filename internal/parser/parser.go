// Package parser implements the byte-incremental HTTP request-head state
// machine described in component D: a hand-written machine that can be
// fed arbitrarily fragmented input and reports Ok, Bad, or Indeterminate
// after each byte.
//
// The state layout follows the classic explicit-state HTTP parser shape
// (method / URI / literal "HTTP/" / version digits / header lines), kept
// as one enum field on Parser so a fresh Parser is the only way to reset
// it — there is no in-place Reset, matching §4.1's "restartable only by
// constructing a fresh instance."
package parser

import (
	"github.com/silentbot/wschatd/internal/httpmsg"
	"github.com/silentbot/wschatd/internal/httpproto"
	bunsafe "github.com/silentbot/wschatd/internal/unsafe"
)

const httpVersionLiteral = "HTTP/"

// Result is the three-way outcome the parser reports after each
// consumed byte.
type Result int

const (
	// Indeterminate means more input is required before a verdict exists.
	Indeterminate Result = iota
	// Ok means the request head is fully consumed.
	Ok
	// Bad means the input violates the grammar; the connection must be
	// abandoned.
	Bad
)

type state int

const (
	stateMethodStart state = iota
	stateMethod
	stateURIStart
	stateURI
	stateHTTPVersionLiteral
	stateVersionMajorStart
	stateVersionMajor
	stateVersionMinorStart
	stateVersionMinor
	stateExpectingNewlineAfterRequestLine
	stateHeaderLineStart
	stateHeaderName
	stateHeaderColon
	stateSpaceBeforeHeaderValue
	stateHeaderValue
	stateExpectingNewlineAfterHeaderValue
	stateExpectingNewlineAfterHeaders
)

// Parser is the incremental state machine. Beyond its state enum it
// carries only a fixed-size scratch array for matching the literal
// "HTTP/" a byte at a time; it holds no reference to any network buffer.
type Parser struct {
	state  state
	litBuf [len(httpVersionLiteral)]byte
	litLen int
}

// New returns a fresh parser positioned at the start of a request line.
func New() *Parser {
	return &Parser{state: stateMethodStart}
}

func isCtl(b byte) bool {
	return b < 0x20 || b == 0x7f
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Execute feeds a chunk of input (of any length, including one byte) to
// the parser and drives it until a terminal result or the chunk is
// exhausted. Per P1, calling Execute repeatedly with arbitrary slicing of
// the same overall byte string must yield the same result as calling it
// once with the whole string.
func (p *Parser) Execute(req *httpproto.Request, data []byte) Result {
	for _, b := range data {
		r := p.consume(req, b)
		if r != Indeterminate {
			return r
		}
	}
	return Indeterminate
}

// consume advances the machine by exactly one byte.
func (p *Parser) consume(req *httpproto.Request, b byte) Result {
	switch p.state {
	case stateMethodStart:
		if !isAlpha(b) {
			return Bad
		}
		req.AppendMethodByte(b)
		p.state = stateMethod
		return Indeterminate

	case stateMethod:
		if b == ' ' {
			req.CommitMethod()
			p.state = stateURIStart
			return Indeterminate
		}
		if !isAlpha(b) {
			return Bad
		}
		req.AppendMethodByte(b)
		return Indeterminate

	case stateURIStart:
		if b == ' ' || isCtl(b) {
			return Bad
		}
		req.AppendURIByte(b)
		p.state = stateURI
		return Indeterminate

	case stateURI:
		if b == ' ' {
			req.CommitURI()
			p.state = stateHTTPVersionLiteral
			p.litLen = 0
			return Indeterminate
		}
		if isCtl(b) {
			return Bad
		}
		req.AppendURIByte(b)
		return Indeterminate

	case stateHTTPVersionLiteral:
		p.litBuf[p.litLen] = b
		p.litLen++
		if p.litLen < len(p.litBuf) {
			return Indeterminate
		}
		if !bunsafe.EqualBytes(p.litBuf[:], httpVersionLiteral) {
			return Bad
		}
		p.state = stateVersionMajorStart
		return Indeterminate

	case stateVersionMajorStart:
		if !isDigit(b) {
			return Bad
		}
		req.VersionMajor = req.VersionMajor*10 + (b - '0')
		p.state = stateVersionMajor
		return Indeterminate

	case stateVersionMajor:
		if b == '.' {
			p.state = stateVersionMinorStart
			return Indeterminate
		}
		if !isDigit(b) {
			return Bad
		}
		req.VersionMajor = req.VersionMajor*10 + (b - '0')
		return Indeterminate

	case stateVersionMinorStart:
		if !isDigit(b) {
			return Bad
		}
		req.VersionMinor = req.VersionMinor*10 + (b - '0')
		p.state = stateVersionMinor
		return Indeterminate

	case stateVersionMinor:
		if b == '\r' {
			p.state = stateExpectingNewlineAfterRequestLine
			return Indeterminate
		}
		if !isDigit(b) {
			return Bad
		}
		req.VersionMinor = req.VersionMinor*10 + (b - '0')
		return Indeterminate

	case stateExpectingNewlineAfterRequestLine:
		if b != '\n' {
			return Bad
		}
		p.state = stateHeaderLineStart
		return Indeterminate

	case stateHeaderLineStart:
		if b == '\r' {
			p.state = stateExpectingNewlineAfterHeaders
			return Indeterminate
		}
		if !httpmsg.IsTokenByte(b) {
			return Bad
		}
		req.AppendHeaderNameByte(b)
		p.state = stateHeaderName
		return Indeterminate

	case stateHeaderName:
		if b == ':' {
			p.state = stateHeaderColon
			return Indeterminate
		}
		if !httpmsg.IsTokenByte(b) {
			return Bad
		}
		req.AppendHeaderNameByte(b)
		return Indeterminate

	case stateHeaderColon:
		if b == ' ' {
			p.state = stateSpaceBeforeHeaderValue
			return Indeterminate
		}
		// No leading space: treat this byte as the first value byte.
		p.state = stateHeaderValue
		return p.consume(req, b)

	case stateSpaceBeforeHeaderValue:
		// §9 open question: additional leading whitespace beyond the
		// first is silently discarded rather than starting the value,
		// preserving the original's lenient (if oddly named) behavior.
		if b == ' ' {
			return Indeterminate
		}
		p.state = stateHeaderValue
		return p.consume(req, b)

	case stateHeaderValue:
		if b == '\r' {
			req.CommitHeader()
			p.state = stateExpectingNewlineAfterHeaderValue
			return Indeterminate
		}
		if !httpmsg.IsHeaderValueByte(b) {
			return Bad
		}
		req.AppendHeaderValueByte(b)
		return Indeterminate

	case stateExpectingNewlineAfterHeaderValue:
		if b != '\n' {
			return Bad
		}
		p.state = stateHeaderLineStart
		return Indeterminate

	case stateExpectingNewlineAfterHeaders:
		if b != '\n' {
			return Bad
		}
		return Ok
	}

	return Bad
}
