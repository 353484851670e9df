package stream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuelink/internal/ws"
	"venuelink/pkg/core"
)

type fakeConn struct {
	h        Handler
	log      *eventLog
	respond  func(c *fakeConn, msg string)
	autoPong bool
	pings    atomic.Int32
	closed   atomic.Bool
}

func (c *fakeConn) WriteText(data []byte) error {
	if c.closed.Load() {
		return ws.ErrClosed
	}
	msg := string(data)
	c.log.add("sent:" + msg)
	if c.respond != nil {
		go c.respond(c, msg)
	}
	return nil
}

func (c *fakeConn) WritePing() error {
	if c.closed.Load() {
		return ws.ErrClosed
	}
	c.pings.Add(1)
	if c.autoPong {
		go c.h.OnPong()
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	log      *eventLog
	respond  func(c *fakeConn, msg string)
	autoPong atomic.Bool
	err      error
	urls     []string
	headers  []http.Header
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(_ context.Context, url string, header http.Header, h Handler) (Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{h: h, log: d.log, respond: d.respond, autoPong: d.autoPong.Load()}
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.headers = append(d.headers, header)
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	h.OnOpen()
	return c, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) count(e string) int {
	n := 0
	for _, got := range l.all() {
		if got == e {
			n++
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.HeartbeatTimeout = 30 * time.Millisecond
	cfg.RenewalBackoff = time.Millisecond
	return cfg
}

func newTestSession(t *testing.T, rule Rule, d *fakeDialer, cfg Config) *Session {
	t.Helper()
	if rule.Venue == "" {
		rule.Venue = "test"
	}
	if rule.URL == "" {
		rule.URL = "wss://stream.test/ws"
	}
	s, err := New(rule, WithDialer(d), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func subscribeWith(payloads ...string) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		out := make([][]byte, len(payloads))
		for i, p := range payloads {
			out[i] = []byte(p)
		}
		return out, nil
	}
}

func TestSession_ConnectSendsSubscriptionAfterOpen(t *testing.T) {
	log := &eventLog{}
	d := &fakeDialer{log: log}
	s := newTestSession(t, Rule{Subscribe: subscribeWith(`{"op":"subscribe"}`)}, d, testConfig())
	s.OnOpen(func() { log.add("open") })

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, StateSubscribed, s.State())
	assert.Equal(t, []string{"open", `sent:{"op":"subscribe"}`}, log.all())
	assert.Equal(t, "wss://stream.test/ws", d.urls[0])
}

func TestSession_SubscribeSendsEveryMessageInOrder(t *testing.T) {
	log := &eventLog{}
	d := &fakeDialer{log: log}
	s := newTestSession(t, Rule{Subscribe: subscribeWith(`{"channel":"a"}`, `{"channel":"b"}`)}, d, testConfig())

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, []string{`sent:{"channel":"a"}`, `sent:{"channel":"b"}`}, log.all())
}

func TestSession_ConnectWhileConnected(t *testing.T) {
	s := newTestSession(t, Rule{}, &fakeDialer{log: &eventLog{}}, testConfig())
	require.NoError(t, s.Connect(context.Background()))

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsInvalidState(err))
	assert.Equal(t, StateSubscribed, s.State())
}

func TestSession_DialFailure(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}, err: errors.New("connection refused")}
	s := newTestSession(t, Rule{}, d, testConfig())

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsTransportError(err))
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_HeartbeatTimeout(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{Heartbeat: Heartbeat{Mode: HeartbeatPing}}, d, testConfig())
	closed := make(chan error, 1)
	s.OnClose(func(err error) { closed <- err })

	require.NoError(t, s.Connect(context.Background()))

	select {
	case err := <-closed:
		assert.True(t, core.IsLivenessTimeout(err))
	case <-time.After(time.Second):
		t.Fatal("close listener not called")
	}
	assert.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.True(t, d.conn(0).closed.Load())
	assert.EqualValues(t, 1, d.conn(0).pings.Load())
}

func TestSession_HeartbeatAcknowledged(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	d.autoPong.Store(true)
	s := newTestSession(t, Rule{Heartbeat: Heartbeat{Mode: HeartbeatPing}}, d, testConfig())
	s.OnClose(func(err error) { t.Errorf("unexpected close: %v", err) })

	require.NoError(t, s.Connect(context.Background()))
	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, StateSubscribed, s.State())
	assert.GreaterOrEqual(t, d.conn(0).pings.Load(), int32(3))
}

func TestSession_MessageHeartbeat(t *testing.T) {
	log := &eventLog{}
	d := &fakeDialer{log: log, respond: func(c *fakeConn, msg string) {
		if msg == `{"op":"ping"}` {
			c.h.OnMessage([]byte(`{"type":"pong"}`), false)
		}
	}}
	rule := Rule{
		Heartbeat: Heartbeat{Mode: HeartbeatMessage, Probe: []byte(`{"op":"ping"}`)},
		Classify: func(msg []byte) Control {
			return Control{Pong: string(msg) == `{"type":"pong"}`}
		},
	}
	s := newTestSession(t, rule, d, testConfig())
	var pongs atomic.Int32
	s.OnMessage(func(msg []byte) {
		if string(msg) == `{"type":"pong"}` {
			pongs.Add(1)
		}
	})

	require.NoError(t, s.Connect(context.Background()))
	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, StateSubscribed, s.State())
	assert.GreaterOrEqual(t, pongs.Load(), int32(2))
	assert.GreaterOrEqual(t, log.count(`sent:{"op":"ping"}`), 2)
}

func TestSession_ReconnectIgnoresStaleTimers(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	cfg := testConfig()
	cfg.HeartbeatTimeout = 40 * time.Millisecond
	s := newTestSession(t, Rule{Heartbeat: Heartbeat{Mode: HeartbeatPing}}, d, cfg)
	var closes atomic.Int32
	s.OnClose(func(error) { closes.Add(1) })

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Disconnect())
	assert.Equal(t, StateIdle, s.State())

	d.autoPong.Store(true)
	require.NoError(t, s.Connect(context.Background()))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, StateSubscribed, s.State())
	assert.Zero(t, closes.Load())
}

func TestSession_DisconnectDetachesListeners(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{}, d, testConfig())
	var messages, closes atomic.Int32
	s.OnMessage(func([]byte) { messages.Add(1) })
	s.OnClose(func(error) { closes.Add(1) })

	require.NoError(t, s.Connect(context.Background()))
	conn := d.conn(0)
	conn.h.OnMessage([]byte("first"), false)
	assert.Eventually(t, func() bool { return messages.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())
	conn.h.OnMessage([]byte("late"), false)
	conn.h.OnClose(nil)
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 1, messages.Load())
	assert.Zero(t, closes.Load())
	assert.True(t, conn.closed.Load())
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Token())
}

func TestSession_RemoveListener(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{}, d, testConfig())

	var calls atomic.Int32
	fn := func([]byte) { calls.Add(1) }
	first := s.OnMessage(fn)
	s.OnMessage(fn)
	removed := s.OnMessage(fn)
	assert.True(t, s.RemoveOnMessage(removed))
	assert.False(t, s.RemoveOnMessage(removed))

	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).h.OnMessage([]byte("one"), false)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	assert.True(t, s.RemoveOnMessage(first))
	d.conn(0).h.OnMessage([]byte("two"), false)
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSession_ServerClose(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{}, d, testConfig())
	closed := make(chan error, 1)
	s.OnClose(func(err error) { closed <- err })

	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).h.OnClose(nil)

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close listener not called")
	}
	assert.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Connect(context.Background()))
}

func TestSession_ReconnectFromCloseListener(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{Subscribe: subscribeWith(`{"op":"subscribe"}`)}, d, testConfig())

	reconnected := make(chan error, 1)
	var once sync.Once
	s.OnClose(func(error) {
		once.Do(func() {
			assert.Equal(t, StateIdle, s.State())
			reconnected <- s.Connect(context.Background())
		})
	})

	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).h.OnClose(errors.New("connection reset"))

	select {
	case err := <-reconnected:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close listener not called")
	}
	assert.Equal(t, StateSubscribed, s.State())
	assert.False(t, d.conn(1).closed.Load())
	assert.Equal(t, 2, d.log.count(`sent:{"op":"subscribe"}`))
}

func loginRule(ack string) (Rule, *fakeDialer, *eventLog) {
	log := &eventLog{}
	d := &fakeDialer{log: log, respond: func(c *fakeConn, msg string) {
		if msg == `{"op":"login"}` && ack != "" {
			c.h.OnMessage([]byte(ack), false)
		}
	}}
	rule := Rule{
		Auth:      func() ([]byte, error) { return []byte(`{"op":"login"}`), nil },
		AwaitAuth: true,
		Subscribe: func(ack []byte) ([][]byte, error) {
			log.add("ack:" + string(ack))
			return [][]byte{[]byte(`{"op":"subscribe"}`)}, nil
		},
		Classify: func(msg []byte) Control {
			s := string(msg)
			return Control{
				Authenticated: strings.Contains(s, `"success":true`),
				AuthRejected:  strings.Contains(s, `"event":"error"`),
			}
		},
	}
	return rule, d, log
}

func TestSession_AuthenticatedBeforeSubscribe(t *testing.T) {
	rule, d, log := loginRule(`{"event":"login","success":true}`)
	s := newTestSession(t, rule, d, testConfig())

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, StateSubscribed, s.State())
	assert.Equal(t, []string{
		`sent:{"op":"login"}`,
		`ack:{"event":"login","success":true}`,
		`sent:{"op":"subscribe"}`,
	}, log.all())
}

func TestSession_AuthRejected(t *testing.T) {
	rule, d, log := loginRule(`{"event":"error","code":"60009"}`)
	s := newTestSession(t, rule, d, testConfig())
	errs := make(chan error, 1)
	s.OnError(func(err error) { errs <- err })

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsAuthenticationError(err))
	assert.True(t, core.IsAuthenticationError(<-errs))
	assert.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Zero(t, log.count(`sent:{"op":"subscribe"}`))
}

func TestSession_ConnectCancelledWhileAuthenticating(t *testing.T) {
	rule, d, _ := loginRule("")
	s := newTestSession(t, rule, d, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := s.Connect(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, s.State())
	assert.True(t, d.conn(0).closed.Load())
}

func TestSession_ControlMessagesReachListeners(t *testing.T) {
	log := &eventLog{}
	d := &fakeDialer{log: log}
	rule := Rule{Classify: func(msg []byte) Control {
		if string(msg) == `{"ping":7}` {
			return Control{Replies: [][]byte{[]byte(`{"pong":7}`)}}
		}
		return Control{}
	}}
	s := newTestSession(t, rule, d, testConfig())
	got := make(chan string, 1)
	s.OnMessage(func(msg []byte) { got <- string(msg) })

	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).h.OnMessage([]byte(`{"ping":7}`), false)

	assert.Equal(t, `{"ping":7}`, <-got)
	assert.Equal(t, 1, log.count(`sent:{"pong":7}`))
}

func TestSession_DecodeFailure(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	s := newTestSession(t, Rule{Decode: Gzip}, d, testConfig())
	got := make(chan string, 1)
	errs := make(chan error, 1)
	s.OnMessage(func(msg []byte) { got <- string(msg) })
	s.OnError(func(err error) { errs <- err })

	require.NoError(t, s.Connect(context.Background()))
	d.conn(0).h.OnMessage([]byte("not gzip"), true)
	d.conn(0).h.OnMessage(gzipped(t, `{"ch":"orders"}`), true)

	assert.True(t, core.IsErrorCode(<-errs, core.ErrCodeDecode))
	assert.Equal(t, `{"ch":"orders"}`, <-got)
	assert.Equal(t, StateSubscribed, s.State())
}

type fakeTokens struct {
	renewals atomic.Int32
	renewErr error
}

func (f *fakeTokens) Issue(context.Context) (string, error) { return "key-1", nil }

func (f *fakeTokens) Renew(_ context.Context, token string) error {
	if token != "key-1" {
		return errors.New("wrong token")
	}
	f.renewals.Add(1)
	return f.renewErr
}

func TestSession_TokenInEndpoint(t *testing.T) {
	d := &fakeDialer{log: &eventLog{}}
	rule := Rule{
		Token:    &fakeTokens{},
		Endpoint: func(url, token string) string { return url + "/" + token },
	}
	s := newTestSession(t, rule, d, testConfig())

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, "wss://stream.test/ws/key-1", d.urls[0])
	assert.Equal(t, "key-1", s.Token())
}

func TestSession_TokenRenewalFailure(t *testing.T) {
	tokens := &fakeTokens{renewErr: core.NewUpstreamError("test", 400, `{"code":-1125}`)}
	d := &fakeDialer{log: &eventLog{}}
	cfg := testConfig()
	cfg.TokenRenewal = 20 * time.Millisecond
	cfg.RenewalAttempts = 2
	s := newTestSession(t, Rule{Token: tokens}, d, cfg)
	errs := make(chan error, 1)
	s.OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	require.NoError(t, s.Connect(context.Background()))

	select {
	case err := <-errs:
		assert.True(t, core.IsErrorCode(err, core.ErrCodeTokenRenewal))
		assert.True(t, core.IsUpstreamError(err))
	case <-time.After(2 * time.Second):
		t.Fatal("renewal failure not reported")
	}
	assert.GreaterOrEqual(t, tokens.renewals.Load(), int32(2))
	assert.Equal(t, StateSubscribed, s.State())
}

func TestSession_SendRequiresConnection(t *testing.T) {
	log := &eventLog{}
	s := newTestSession(t, Rule{}, &fakeDialer{log: log}, testConfig())
	assert.ErrorIs(t, s.Send([]byte("x")), core.ErrNotConnected)

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.SendJSON(map[string]string{"op": "ping"}))
	assert.Equal(t, 1, log.count(`sent:{"op":"ping"}`))
}

func TestNew_InvalidRule(t *testing.T) {
	_, err := New(Rule{Venue: "test"})
	assert.Error(t, err)

	_, err = New(Rule{Venue: "test", URL: "wss://x", AwaitAuth: true})
	assert.Error(t, err)

	_, err = New(Rule{Venue: "test", URL: "wss://x", Heartbeat: Heartbeat{Mode: HeartbeatMessage}})
	assert.Error(t, err)

	_, err = New(Rule{Venue: "test", URL: "wss://x"}, WithConfig(Config{}))
	assert.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(core.StreamConfig{HeartbeatInterval: time.Second, RenewalAttempts: 5})
	assert.Equal(t, time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatTimeout)
	assert.Equal(t, 30*time.Minute, cfg.TokenRenewal)
	assert.EqualValues(t, 5, cfg.RenewalAttempts)
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecoders(t *testing.T) {
	out, err := Gzip(gzipped(t, "hello"), true)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	out, err = Gzip([]byte("plain"), false)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, _ = w.Write([]byte(`{"event":"login"}`))
	require.NoError(t, w.Close())
	out, err = Inflate(buf.Bytes(), true)
	require.NoError(t, err)
	assert.Equal(t, `{"event":"login"}`, string(out))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "subscribed", StateSubscribed.String())
	assert.Equal(t, "closing", StateClosing.String())
}
