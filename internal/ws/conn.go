// Websocket transport of Codepad. Each Conn runs a read pump feeding the room
// hub and a write pump draining its send queue, so a slow browser never holds
// up the hub.

package ws

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"Codepad/internal/entity"
	"Codepad/pkg/log"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 256

	// CloseReconnecting is sent by clients closing on purpose before reconnecting.
	CloseReconnecting = 4000
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// Hub receives the events of every connection.
type Hub interface {
	Connect(conn entity.Connection) bool
	Dispatch(conn entity.Connection, ev entity.Inbound) bool
}

// Conn is a websocket backed entity.Connection.
type Conn struct {
	id     string
	ws     *websocket.Conn
	send   chan []byte
	hub    Hub
	logger log.Logger

	// Identity verified on upgrade, overrides whatever enterRoom claims.
	userID string
	email  string

	closing      chan struct{}
	closeOnce    sync.Once
	serverClosed atomic.Bool
	writeFailed  atomic.Bool
}

func NewConn(id string, wsconn *websocket.Conn, hub Hub, logger log.Logger, userID, email string) *Conn {
	return &Conn{
		id:      id,
		ws:      wsconn,
		send:    make(chan []byte, sendBuffer),
		hub:     hub,
		logger:  logger.With("conn_id", id),
		userID:  userID,
		email:   email,
		closing: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for the write pump without blocking.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closing:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close asks the write pump to send a close frame and drop the socket.
// It returns at once, the read pump reports the disconnect afterwards.
func (c *Conn) Close() error {
	c.serverClosed.Store(true)
	c.shutdown()
	return nil
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() { close(c.closing) })
}

// Run pumps the connection until it goes away. Blocks.
func (c *Conn) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Conn) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			reason := c.reasonFor(err)
			c.logger.Debug().Err(err).Str("reason", string(reason)).Msg("Websocket read ended")
			c.hub.Dispatch(c, entity.Disconnect{Reason: reason})
			c.shutdown()
			return
		}
		ev, derr := entity.DecodeInbound(data)
		if derr != nil {
			c.logger.Warn().Err(derr).Msg("Skipping malformed frame")
			continue
		}
		if enter, ok := ev.(entity.EnterRoom); ok && c.userID != "" {
			enter.UserID = c.userID
			if c.email != "" {
				enter.Email = c.email
			}
			ev = enter
		}
		if !c.hub.Dispatch(c, ev) {
			// Hub stopped, it closes us on its way out.
			c.shutdown()
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug().Err(err).Msg("Websocket write failed")
				c.writeFailed.Store(true)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.writeFailed.Store(true)
				return
			}
		case <-c.closing:
			if c.serverClosed.Load() {
				frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				c.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
			}
			return
		}
	}
}

// reasonFor maps the error ending the read pump to a disconnect reason.
func (c *Conn) reasonFor(err error) entity.DisconnectReason {
	if c.serverClosed.Load() || errors.Is(err, websocket.ErrReadLimit) {
		return entity.ReasonServerClose
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case CloseReconnecting:
			return entity.ReasonClientReconnecting
		case websocket.CloseAbnormalClosure:
			return entity.ReasonTransportClose
		default:
			return entity.ReasonClientClose
		}
	}
	if c.writeFailed.Load() {
		return entity.ReasonTransportClose
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.ReasonPingTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return entity.ReasonTransportClose
	}
	return entity.ReasonTransportError
}
