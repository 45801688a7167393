package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silentbot/wschatd/internal/httpproto"
	"github.com/silentbot/wschatd/internal/parser"
)

func parseAll(t *testing.T, chunks ...[]byte) (*httpproto.Request, parser.Result) {
	t.Helper()
	p := parser.New()
	req := &httpproto.Request{}
	var result parser.Result
	for _, c := range chunks {
		result = p.Execute(req, c)
		if result != parser.Indeterminate {
			return req, result
		}
	}
	return req, result
}

func TestParsesSimpleGet(t *testing.T) {
	raw := []byte("GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n")
	req, result := parseAll(t, raw)

	require.Equal(t, parser.Ok, result)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/index.html", req.URI)
	assert.EqualValues(t, 1, req.VersionMajor)
	assert.EqualValues(t, 1, req.VersionMinor)
	v, ok := req.Header("Host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)
}

func TestChunkingInvariance(t *testing.T) {
	raw := []byte("POST /chat HTTP/1.1\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n")

	whole, wholeResult := parseAll(t, raw)

	p := parser.New()
	req := &httpproto.Request{}
	var byteResult parser.Result
	for i := 0; i < len(raw); i++ {
		byteResult = p.Execute(req, raw[i:i+1])
		if byteResult != parser.Indeterminate {
			break
		}
	}

	require.Equal(t, wholeResult, byteResult)
	assert.Equal(t, whole.Method, req.Method)
	assert.Equal(t, whole.URI, req.URI)
	assert.Equal(t, whole.Headers, req.Headers)
}

func TestRejectsMissingSpaceAfterMethod(t *testing.T) {
	_, result := parseAll(t, []byte("GET\r\n"))
	assert.Equal(t, parser.Bad, result)
}

func TestRejectsControlByteInURI(t *testing.T) {
	_, result := parseAll(t, []byte("GET /\x01 HTTP/1.1\r\n\r\n"))
	assert.Equal(t, parser.Bad, result)
}

func TestRejectsBadVersionLiteral(t *testing.T) {
	_, result := parseAll(t, []byte("GET / HTCP/1.1\r\n\r\n"))
	assert.Equal(t, parser.Bad, result)
}

func TestIndeterminateOnPartialRequest(t *testing.T) {
	_, result := parseAll(t, []byte("GET / HTTP/1."))
	assert.Equal(t, parser.Indeterminate, result)
}

func TestHeaderWithoutLeadingSpace(t *testing.T) {
	req, result := parseAll(t, []byte("GET / HTTP/1.1\r\nX-Test:value\r\n\r\n"))
	require.Equal(t, parser.Ok, result)
	v, ok := req.Header("X-Test")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestHeaderWithExtraLeadingSpacesDiscarded(t *testing.T) {
	req, result := parseAll(t, []byte("GET / HTTP/1.1\r\nX-Test:   value\r\n\r\n"))
	require.Equal(t, parser.Ok, result)
	v, ok := req.Header("X-Test")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestMultipleHeadersPreserveOrder(t *testing.T) {
	req, result := parseAll(t, []byte("GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\n\r\n"))
	require.Equal(t, parser.Ok, result)
	require.Len(t, req.Headers, 2)
	assert.Equal(t, "A", req.Headers[0].Name)
	assert.Equal(t, "B", req.Headers[1].Name)
}

func TestEveryPrefixIsIndeterminateOrTerminal(t *testing.T) {
	raw := []byte("GET /a HTTP/1.1\r\nHost: h\r\n\r\n")
	for i := 1; i < len(raw); i++ {
		p := parser.New()
		req := &httpproto.Request{}
		result := p.Execute(req, raw[:i])
		assert.NotEqual(t, parser.Bad, result, "prefix of length %d must not be Bad", i)
	}
}
