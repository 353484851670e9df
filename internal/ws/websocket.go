// Package ws adapts lxzan/gws to the raw duplex channel a streaming session drives.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when writing to a closed connection.
var ErrClosed = errors.New("websocket closed")

// Handler receives the events of one connection. Calls arrive from the
// connection's read goroutine, one at a time.
type Handler interface {
	OnOpen()
	OnClose(err error)
	OnMessage(data []byte, binary bool)
	OnPong()
}

// Conn is the write side of one connection.
type Conn interface {
	WriteText(data []byte) error
	WritePing() error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header, h Handler) (Conn, error)
}

// GWSDialer dials with gws. Server pings are answered automatically.
type GWSDialer struct {
	logger           zerolog.Logger
	handshakeTimeout time.Duration
}

var _ Dialer = (*GWSDialer)(nil)

func NewDialer(logger zerolog.Logger) *GWSDialer {
	return &GWSDialer{logger: logger, handshakeTimeout: 10 * time.Second}
}

// Dial completes the websocket handshake and starts the read loop. The
// handshake is bounded by the earlier of ctx's deadline and ten seconds.
func (d *GWSDialer) Dial(ctx context.Context, addr string, header http.Header, h Handler) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := d.handshakeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}

	conn := &gwsConn{}
	handler := &eventHandler{handler: h, conn: conn, logger: d.logger}
	socket, _, err := gws.NewClient(handler, &gws.ClientOption{
		Addr:             addr,
		RequestHeader:    header,
		HandshakeTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host(addr), err)
	}
	conn.socket = socket

	d.logger.Info().Str("host", host(addr)).Msg("websocket connected")
	go socket.ReadLoop()
	return conn, nil
}

// host reduces a stream URL to scheme and host. Paths and queries may hold
// listen keys.
func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Scheme + "://" + u.Host
}

type gwsConn struct {
	socket *gws.Conn
	state  State
}

func (c *gwsConn) WriteText(data []byte) error {
	if c.state.Load() != StateOpen {
		return ErrClosed
	}
	return c.socket.WriteMessage(gws.OpcodeText, data)
}

func (c *gwsConn) WritePing() error {
	if c.state.Load() != StateOpen {
		return ErrClosed
	}
	return c.socket.WritePing(nil)
}

// Close sends a normal-closure frame and drops the TCP connection. Repeated calls are no-ops.
func (c *gwsConn) Close() error {
	if !c.state.CompareAndSwap(StateOpen, StateClosed) {
		return nil
	}
	c.socket.WriteClose(1000, nil)
	return c.socket.NetConn().Close()
}

type eventHandler struct {
	handler Handler
	conn    *gwsConn
	logger  zerolog.Logger
}

func (e *eventHandler) OnOpen(*gws.Conn) {
	e.handler.OnOpen()
}

func (e *eventHandler) OnClose(_ *gws.Conn, err error) {
	e.conn.state.Store(StateClosed)
	e.logger.Debug().Err(err).Msg("websocket read loop ended")
	e.handler.OnClose(err)
}

func (e *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (e *eventHandler) OnPong(*gws.Conn, []byte) {
	e.handler.OnPong()
}

func (e *eventHandler) OnMessage(_ *gws.Conn, message *gws.Message) {
	defer message.Close()
	data := append([]byte(nil), message.Bytes()...)
	e.handler.OnMessage(data, message.Opcode == gws.OpcodeBinary)
}
