package stream

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"venuelink/pkg/core"
)

type eventKind int

const (
	eventOpen eventKind = iota
	eventClose
	eventMessage
	eventPong
	eventProbe
	eventAckTimeout
	eventError
)

type event struct {
	kind   eventKind
	data   []byte
	binary bool
	err    error
	probe  uint64
}

// generation is one connection of a Session. Transport callbacks and timers
// only enqueue events; the event goroutine owns everything below conn.
type generation struct {
	id     uint64
	s      *Session
	ctx    context.Context
	cancel context.CancelFunc
	events chan event

	ready      chan struct{}
	failed     chan error
	settleOnce sync.Once

	// set under Session.mu before the event goroutine starts
	conn  Conn
	token string

	probeSeq    uint64
	awaitingAck bool
	probeTimer  *time.Timer
	ackTimer    *time.Timer
}

var _ Handler = (*generation)(nil)

func newGeneration(s *Session, id uint64) *generation {
	ctx, cancel := context.WithCancel(context.Background())
	return &generation{
		id:     id,
		s:      s,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan event, s.cfg.EventBuffer),
		ready:  make(chan struct{}),
		failed: make(chan error, 1),
	}
}

func (g *generation) detached() bool { return g.ctx.Err() != nil }

func (g *generation) post(ev event) {
	select {
	case g.events <- ev:
	case <-g.ctx.Done():
	}
}

func (g *generation) OnOpen() { g.post(event{kind: eventOpen}) }
func (g *generation) OnClose(err error) { g.post(event{kind: eventClose, err: err}) }
func (g *generation) OnMessage(data []byte, binary bool) { g.post(event{kind: eventMessage, data: data, binary: binary}) }
func (g *generation) OnPong() { g.post(event{kind: eventPong}) }

// settle reports the outcome of the handshake to Connect.
func (g *generation) settle(err error) {
	g.settleOnce.Do(func() {
		if err != nil {
			g.failed <- err
			return
		}
		close(g.ready)
	})
}

func (g *generation) run() {
	defer g.stopTimers()
	for {
		select {
		case <-g.ctx.Done():
			return
		case ev := <-g.events:
			if g.detached() {
				return
			}
			g.handle(ev)
		}
	}
}

func (g *generation) handle(ev event) {
	switch ev.kind {
	case eventOpen:
		g.open()
	case eventMessage:
		g.message(ev.data, ev.binary)
	case eventPong:
		g.ack()
	case eventProbe:
		if ev.probe == g.probeSeq && !g.awaitingAck {
			g.probe()
		}
	case eventAckTimeout:
		if ev.probe == g.probeSeq && g.awaitingAck {
			g.s.teardown(g, core.NewLivenessTimeoutError(g.s.rule.Venue, g.s.cfg.HeartbeatTimeout))
		}
	case eventError:
		g.s.emitError(g, ev.err)
	case eventClose:
		g.s.teardown(g, ev.err)
	}
}

func (g *generation) open() {
	s := g.s
	if !s.setState(g, StateOpen) {
		return
	}
	s.emitOpen(g)
	if g.detached() {
		return
	}
	g.probe()

	if s.rule.Auth != nil {
		payload, err := s.rule.Auth()
		if err != nil {
			g.fail(err)
			return
		}
		s.setState(g, StateAuthenticating)
		if !g.write(payload) {
			return
		}
		if s.rule.AwaitAuth {
			return
		}
	}
	g.subscribe(nil)
}

func (g *generation) subscribe(ack []byte) {
	s := g.s
	if s.rule.Subscribe != nil {
		payloads, err := s.rule.Subscribe(ack)
		if err != nil {
			g.fail(err)
			return
		}
		for _, payload := range payloads {
			if !g.write(payload) {
				return
			}
		}
	}
	if !s.setState(g, StateSubscribed) {
		return
	}
	g.settle(nil)
	g.startRenewal()
}

func (g *generation) message(data []byte, binary bool) {
	s := g.s
	msg := data
	if s.rule.Decode != nil {
		var err error
		if msg, err = s.rule.Decode(data, binary); err != nil {
			e := core.NewExchangeError(s.rule.Venue, core.ErrorTypeTransport, 0, "decode frame: "+err.Error()).
				WithCode(core.ErrCodeDecode)
			e.Err = err
			s.emitError(g, e)
			return
		}
	}

	var ctl Control
	if s.rule.Classify != nil {
		ctl = s.rule.Classify(msg)
	}
	for _, reply := range ctl.Replies {
		if !g.write(reply) {
			return
		}
	}
	if ctl.Pong {
		g.ack()
	}

	s.emitMessage(g, msg)
	if g.detached() {
		return
	}

	switch {
	case ctl.AuthRejected:
		g.fail(core.NewAuthenticationError(s.rule.Venue, string(msg)))
	case ctl.Authenticated && s.State() == StateAuthenticating:
		s.setState(g, StateAuthenticated)
		g.subscribe(msg)
	}
}

// fail reports a handshake failure to error listeners and Connect, then
// closes the connection.
func (g *generation) fail(err error) {
	g.s.emitError(g, err)
	g.settle(err)
	g.s.teardown(g, err)
}

func (g *generation) write(data []byte) bool {
	if err := g.conn.WriteText(data); err != nil {
		g.s.emitError(g, core.NewTransportError(g.s.rule.Venue, err))
		return false
	}
	return true
}

// probe sends one heartbeat and arms its timeout. Only one probe is
// outstanding at a time; the next is scheduled when it is acknowledged.
func (g *generation) probe() {
	hb := g.s.rule.Heartbeat
	if hb.Mode == HeartbeatNone || g.awaitingAck {
		return
	}
	g.probeSeq++
	seq := g.probeSeq

	var err error
	if hb.Mode == HeartbeatPing {
		err = g.conn.WritePing()
	} else {
		err = g.conn.WriteText(hb.Probe)
	}
	if err != nil {
		g.s.emitError(g, core.NewTransportError(g.s.rule.Venue, err))
	}

	g.awaitingAck = true
	g.ackTimer = time.AfterFunc(g.s.cfg.HeartbeatTimeout, func() {
		g.post(event{kind: eventAckTimeout, probe: seq})
	})
}

func (g *generation) ack() {
	if !g.awaitingAck {
		return
	}
	g.awaitingAck = false
	g.ackTimer.Stop()
	seq := g.probeSeq
	g.probeTimer = time.AfterFunc(g.s.cfg.HeartbeatInterval, func() {
		g.post(event{kind: eventProbe, probe: seq})
	})
}

func (g *generation) stopTimers() {
	if g.probeTimer != nil {
		g.probeTimer.Stop()
	}
	if g.ackTimer != nil {
		g.ackTimer.Stop()
	}
}

func (g *generation) startRenewal() {
	if g.s.rule.Token == nil || g.token == "" {
		return
	}
	go g.renewLoop()
}

// renewLoop keeps the session token alive until the generation ends. A
// renewal that fails every attempt is reported to error listeners; the
// connection is left to the heartbeat and the venue.
func (g *generation) renewLoop() {
	ticker := time.NewTicker(g.s.cfg.TokenRenewal)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			if err := g.renew(); err != nil {
				g.post(event{kind: eventError, err: err})
			}
		}
	}
}

func (g *generation) renew() error {
	cfg := g.s.cfg
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RenewalBackoff
	if cfg.RenewalBackoff == 0 {
		b.InitialInterval = time.Millisecond
	}

	_, err := backoff.Retry(g.ctx, func() (struct{}, error) {
		return struct{}{}, g.s.rule.Token.Renew(g.ctx, g.token)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(cfg.RenewalAttempts))
	if err == nil || g.detached() {
		return nil
	}
	g.s.logger.Warn().Err(err).Uint64("generation", g.id).Msg("session token renewal failed")

	typ := core.ErrorTypeTransport
	if core.IsUpstreamError(err) {
		typ = core.ErrorTypeUpstream
	}
	e := core.NewExchangeError(g.s.rule.Venue, typ, 0, "renew session token: "+err.Error()).
		WithCode(core.ErrCodeTokenRenewal)
	e.Err = err
	return e
}
