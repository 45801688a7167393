package chat

import (
	"context"
	"errors"
	"net"
	"runtime"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu  sync.Mutex
	out []string
	err error
}

func (w *fakeWriter) writeText(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.out = append(w.out, msg)
	return nil
}

func (w *fakeWriter) messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.out...)
}

func TestParseCommandNick(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"message_type":"nick","nick":"ari"}`))
	require.NoError(t, err)
	assert.Equal(t, CommandNick, cmd.MessageType)
	assert.Equal(t, "ari", cmd.Nick)
}

func TestParseCommandInvalidJSON(t *testing.T) {
	_, err := ParseCommand([]byte(`not json`))
	assert.Error(t, err)
}

func TestRegistryRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	w := &fakeWriter{}
	r.Register("ari", w)

	got, ok := r.Lookup("ari")
	require.True(t, ok)
	assert.Same(t, w, got.(*fakeWriter))

	r.Unregister("ari")
	_, ok = r.Lookup("ari")
	assert.False(t, ok)
}

func TestRegistryBroadcastExcludesSender(t *testing.T) {
	r := NewRegistry()
	sender := &fakeWriter{}
	receiver := &fakeWriter{}
	r.Register("sender", sender)
	r.Register("receiver", receiver)

	r.Broadcast("sender", "hi", func(nick string, err error) {})

	// Broadcast fans out asynchronously; poll briefly for delivery.
	for i := 0; i < 10000 && len(receiver.messages()) == 0; i++ {
		runtime.Gosched()
	}

	assert.Empty(t, sender.messages())
	assert.Equal(t, []string{"hi"}, receiver.messages())
}

func TestRegistryBroadcastReportsErrors(t *testing.T) {
	r := NewRegistry()
	bad := &fakeWriter{err: errors.New("boom")}
	r.Register("bad", bad)

	errs := make(chan string, 1)
	r.Broadcast("sender", "hi", func(nick string, err error) {
		errs <- nick
	})

	assert.Equal(t, "bad", <-errs)
}

func newTestSession(reg *Registry, w *fakeWriter) *Session {
	return &Session{id: "test", writer: w, registry: reg}
}

func TestSessionHandleNickOnlySetsOnce(t *testing.T) {
	w := &fakeWriter{}
	reg := NewRegistry()
	s := newTestSession(reg, w)

	s.handleNick("ari")
	assert.Equal(t, "ari", s.nick)
	assert.Equal(t, []string{"Hello ari, now you can send messages"}, w.messages())

	_, ok := reg.Lookup("ari")
	assert.True(t, ok)

	s.handleNick("other")
	assert.Equal(t, "ari", s.nick, "second nick command is ignored once set")
}

func TestSessionHandleChatRequiresNickFirst(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSession(NewRegistry(), w)

	s.handleChat("hello")
	assert.Equal(t, []string{replySetNicknameFirst}, w.messages())
}

func TestSessionHandleChatBroadcastsToOthers(t *testing.T) {
	reg := NewRegistry()
	sender := &fakeWriter{}
	receiver := &fakeWriter{}
	senderSess := newTestSession(reg, sender)
	senderSess.handleNick("ari")
	reg.Register("bo", receiver)

	senderSess.handleChat("hey all")

	for i := 0; i < 10000 && len(receiver.messages()) == 0; i++ {
		runtime.Gosched()
	}
	assert.Equal(t, []string{"hey all"}, receiver.messages())
}

func TestSessionHandleChatFloodControl(t *testing.T) {
	reg := NewRegistry()
	w := &fakeWriter{}
	s := newTestSession(reg, w)
	s.handleNick("ari")

	for i := 0; i < burstSize; i++ {
		s.handleChat("msg")
	}
	s.handleChat("one too many")

	assert.Contains(t, w.messages(), replyTooFast)
}

func TestSessionHandlePrivateUnknownReceiver(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSession(NewRegistry(), w)

	s.handlePrivate("ghost", "hi")
	assert.Equal(t, []string{replyNotConnected("ghost")}, w.messages())
}

func TestSessionHandlePrivateDeliversDirectly(t *testing.T) {
	reg := NewRegistry()
	receiver := &fakeWriter{}
	reg.Register("bo", receiver)
	s := newTestSession(reg, &fakeWriter{})

	s.handlePrivate("bo", "psst")
	assert.Equal(t, []string{"psst"}, receiver.messages())
}

func TestSessionHandleQuitRequiresNick(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSession(NewRegistry(), w)

	s.handleQuit()
	assert.Equal(t, []string{replyLeaveImpossible}, w.messages())
}

func TestSessionHandleQuitUnregistersAndResetsNick(t *testing.T) {
	reg := NewRegistry()
	w := &fakeWriter{}
	s := newTestSession(reg, w)
	s.handleNick("ari")

	s.handleQuit()
	assert.Equal(t, "", s.nick)
	_, ok := reg.Lookup("ari")
	assert.False(t, ok)
	assert.Contains(t, w.messages(), replyLeft)
}

func TestSessionHandleFrameUnknownCommandReplies(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSession(NewRegistry(), w)

	s.handleFrame([]byte(`not json`))
	assert.Equal(t, []string{replyCommandNotSupported}, w.messages())
}

func TestSessionHandleFrameHelp(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSession(NewRegistry(), w)

	s.handleFrame([]byte(`{"message_type":"help"}`))
	assert.Equal(t, []string{Usage}, w.messages())
}

// fakeConn is a wsConn double that replays a fixed script of reads and
// records every write, so Run's event loop can be driven without a live
// websocket handshake.
type fakeConn struct {
	mu      sync.Mutex
	reads   []fakeRead
	writes  []string
	closed  bool
}

type fakeRead struct {
	data []byte
	err  error
}

func (c *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	c.mu.Lock()
	if len(c.reads) == 0 {
		c.mu.Unlock()
		<-ctx.Done()
		return 0, nil, ctx.Err()
	}
	r := c.reads[0]
	c.reads = c.reads[1:]
	c.mu.Unlock()
	return websocket.MessageText, r.data, r.err
}

func (c *fakeConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *fakeConn) CloseNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() (writes []string, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...), c.closed
}

func TestSessionRunDispatchesFramesAndCleansUpOnClose(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{
		reads: []fakeRead{
			{data: []byte(`{"message_type":"nick","nick":"ari"}`)},
			{data: []byte(`{"message_type":"chat","message":"hi all"}`)},
			{err: errors.New("websocket: close 1000 (normal)")},
		},
	}
	s := &Session{id: "test", conn: conn, writer: &connWriter{conn: conn}, registry: reg}

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	<-done

	writes, closed := conn.snapshot()
	assert.True(t, closed, "Run must close the connection on exit")
	require.NotEmpty(t, writes)
	assert.Contains(t, writes, "Hello ari, now you can send messages")

	_, ok := reg.Lookup("ari")
	assert.False(t, ok, "cleanup must unregister the session's nickname")
}

func TestSessionRunStopsOnContextCancel(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{}
	s := &Session{id: "test", conn: conn, writer: &connWriter{conn: conn}, registry: reg}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	_, closed := conn.snapshot()
	assert.True(t, closed)
}

// drain reads conn until it closes or errors, discarding everything. Used
// so that if Accept writes an HTTP error response back down the pipe, the
// synchronous net.Pipe write has a reader and doesn't block forever.
func drain(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

func TestAcceptRejectsNonWebsocketRequest(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go drain(client)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = Accept(server, NewRegistry())
		close(done)
	}()

	_, werr := client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, werr)
	<-done

	assert.Error(t, err, "a plain HTTP request must not be accepted as a websocket upgrade")
}

func TestAcceptRejectsMalformedRequest(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go drain(client)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = Accept(server, NewRegistry())
		close(done)
	}()

	_, werr := client.Write([]byte("not even close to http\r\n\r\n"))
	require.NoError(t, werr)
	<-done

	assert.Error(t, err)
}
