package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// ErrConnectionClosed is returned when sending on a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// Connection is one WebSocket client bound to a player session
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	player    string
	session   *session.Session
	driver    *session.Driver
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	sendMu    sync.RWMutex
	closed    bool
}

// NewConnection creates a new connection wrapper
func NewConnection(parent context.Context, conn *websocket.Conn, sess *session.Session, driver *session.Driver, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(parent)

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		player:  sess.Player(),
		session: sess,
		driver:  driver,
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, dropping client", "player", c.player)
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.player)

	if msg.Type == MessageTypeSnapshot {
		c.sendSnapshot(msg.RequestID)
		return
	}

	action, ok := actions[msg.Type]
	if !ok {
		c.sendError(msg.RequestID, "invalid_message", "unknown message type "+msg.Type.String())
		return
	}

	var bets game.Bets
	if action == game.ActionStartRound {
		var data StartData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, "invalid_message", "Failed to parse start data")
			return
		}
		bets = data.Bets()
	}

	out, err := c.session.Do(c.ctx, action, bets)
	if out == nil {
		c.sendError(msg.RequestID, errorCode(err), err.Error())
		return
	}
	c.sendOutcome(msg.RequestID, out)
	if err != nil {
		c.sendError(msg.RequestID, errorCode(err), err.Error())
	}

	err = c.driver.Run(c.ctx, c.session, func(o *game.Outcome) {
		c.sendOutcome(msg.RequestID, o)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.sendError(msg.RequestID, errorCode(err), err.Error())
	}
}

// sendOutcome sends each event of an outcome followed by the outcome itself
func (c *Connection) sendOutcome(requestID string, out *game.Outcome) {
	for _, e := range out.Events {
		c.deliver(requestID, MessageTypeEvent, EventData{Type: e.EventType(), Event: e, Timestamp: e.Timestamp()})
	}
	c.deliver(requestID, MessageTypeOutcome, OutcomeData{Outcome: out, State: c.session.State()})
}

func (c *Connection) sendSnapshot(requestID string) {
	c.deliver(requestID, MessageTypeSnapshot, SnapshotData{Snapshot: c.session.Snapshot(), State: c.session.State()})
}

func (c *Connection) sendError(requestID, code, message string) {
	c.deliver(requestID, MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) deliver(requestID string, msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	msg.RequestID = requestID
	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("Dropped message", "type", msgType, "player", c.player, "error", err)
	}
}
