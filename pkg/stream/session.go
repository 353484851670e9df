package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"venuelink/internal/ws"
	"venuelink/pkg/core"
)

var validate = validator.New()

// Session is one venue stream. It is safe for concurrent use; listeners run
// on the session's event goroutine, one at a time.
type Session struct {
	rule      Rule
	cfg       Config
	dialer    Dialer
	logger    zerolog.Logger
	listeners registry

	mu    sync.Mutex
	state State
	gen   *generation
	seq   uint64
	token string
}

type Option func(*Session)

// WithDialer replaces the gws transport.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// New creates an idle session for rule.
func New(rule Rule, opts ...Option) (*Session, error) {
	if err := rule.validate(); err != nil {
		return nil, fmt.Errorf("invalid stream rule: %w", err)
	}
	s := &Session{
		rule:   rule,
		cfg:    DefaultConfig(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := validate.Struct(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid stream config: %w", err)
	}
	if s.dialer == nil {
		s.dialer = ws.NewDialer(s.logger)
	}
	s.logger = s.logger.With().Str("venue", rule.Venue).Logger()
	return s, nil
}

func (s *Session) Venue() string { return s.rule.Venue }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the session token of the current connection, if any.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Connect opens the stream and blocks until the subscription is sent, the
// handshake fails, or ctx is done. Connecting a session that is not idle is
// an InvalidState error.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return core.NewInvalidStateError(s.rule.Venue, "connect while "+state.String())
	}
	s.seq++
	g := newGeneration(s, s.seq)
	s.gen = g
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.dial(ctx, g); err != nil {
		s.detach(g)
		return err
	}
	go g.run()

	select {
	case <-g.ready:
		s.logger.Info().Uint64("generation", g.id).Msg("stream subscribed")
		return nil
	case err := <-g.failed:
		return err
	case <-ctx.Done():
		s.detach(g)
		return ctx.Err()
	case <-g.ctx.Done():
		return core.NewInvalidStateError(s.rule.Venue, "disconnected while connecting")
	}
}

func (s *Session) dial(ctx context.Context, g *generation) error {
	var token string
	if s.rule.Token != nil {
		var err error
		if token, err = s.rule.Token.Issue(ctx); err != nil {
			return fmt.Errorf("issue session token: %w", err)
		}
	}

	url := s.rule.URL
	if s.rule.Endpoint != nil {
		url = s.rule.Endpoint(url, token)
	}
	var header http.Header
	if s.rule.Header != nil {
		var err error
		if header, err = s.rule.Header(); err != nil {
			return fmt.Errorf("build handshake headers: %w", err)
		}
	}

	conn, err := s.dialer.Dial(ctx, url, header, g)
	if err != nil {
		return core.NewTransportError(s.rule.Venue, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != g {
		_ = conn.Close()
		return core.NewInvalidStateError(s.rule.Venue, "disconnected while connecting")
	}
	g.conn = conn
	g.token = token
	s.token = token
	s.logger.Debug().Uint64("generation", g.id).Msg("stream dialed")
	return nil
}

// Disconnect closes the connection and returns the session to idle. Listeners
// stay registered but nothing from the closed connection reaches them,
// including pending heartbeat timers. Disconnecting an idle session is a no-op.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	g := s.gen
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	s.detach(g)
	s.logger.Info().Uint64("generation", g.id).Msg("stream disconnected")
	return nil
}

// detach cancels g and closes its connection if g is still current.
func (s *Session) detach(g *generation) {
	s.mu.Lock()
	if s.gen != g {
		s.mu.Unlock()
		return
	}
	s.gen = nil
	s.state = StateClosing
	conn := g.conn
	s.mu.Unlock()

	g.cancel()
	if conn != nil {
		_ = conn.Close()
	}

	s.mu.Lock()
	s.state = StateIdle
	s.token = ""
	s.mu.Unlock()
}

// Send writes a text frame on the current connection.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	var conn Conn
	if s.gen != nil {
		conn = s.gen.conn
	}
	s.mu.Unlock()
	if conn == nil {
		return core.ErrNotConnected
	}
	return conn.WriteText(data)
}

func (s *Session) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(data)
}

// setState moves the session only while g is current.
func (s *Session) setState(g *generation, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != g {
		return false
	}
	s.state = state
	return true
}

func (s *Session) current(g *generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == g
}

// teardown ends g from its own event goroutine. The session is idle again
// before close listeners receive cause, so a listener may call Connect.
func (s *Session) teardown(g *generation, cause error) {
	s.mu.Lock()
	if s.gen != g {
		s.mu.Unlock()
		return
	}
	s.gen = nil
	s.state = StateIdle
	s.token = ""
	s.mu.Unlock()

	_ = g.conn.Close()
	g.settle(setupError(s.rule.Venue, cause))
	s.emitClose(g, cause)
	g.cancel()

	event := s.logger.Info()
	if cause != nil {
		event = s.logger.Warn().Err(cause)
	}
	event.Uint64("generation", g.id).Msg("stream closed")
}

var errClosedEarly = errors.New("connection closed before the subscription was sent")

func setupError(venue string, cause error) error {
	var e *core.ExchangeError
	if errors.As(cause, &e) {
		return cause
	}
	if cause == nil {
		cause = errClosedEarly
	}
	return core.NewTransportError(venue, cause)
}
