package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the auth message
	authWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Send channel buffer size
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	// only touched by readPump
	registered bool

	mu            sync.RWMutex
	subscriptions map[MessageType]bool
}

// clientMessage is what clients may send: {"type":"auth","token":"..."} or
// {"type":"subscribe","events":["register_drift"]}.
type clientMessage struct {
	Type   string        `json:"type"`
	Token  string        `json:"token,omitempty"`
	Events []MessageType `json:"events,omitempty"`
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wants reports whether the client subscribed to t. No subscription means everything.
func (c *Client) wants(t MessageType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[t]
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		if c.registered {
			c.hub.unregisterClient(c)
		} else {
			close(c.send)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if c.hub.validator != nil {
		c.conn.SetReadDeadline(time.Now().Add(authWait))
	} else {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !c.hub.registerClient(c) {
			return
		}
		c.registered = true
	}
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr()))
			}
			return
		}

		// First message MUST be authentication
		if !c.registered {
			if msg.Type != "auth" || msg.Token == "" {
				c.sendAuthFailed("First message must be authentication")
				return
			}

			claims, err := c.hub.validator.ValidateToken(msg.Token)
			if err != nil {
				c.logger.Warn("WebSocket authentication failed",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr()))
				c.sendAuthFailed("Invalid or expired token")
				return
			}

			c.sendAuthSuccess(claims)
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
			c.logger.Info("WebSocket client authenticated",
				zap.String("remote_addr", c.remoteAddr()),
				zap.String("subject", claims.Subject),
				zap.String("role", string(claims.Role)))

			// NOW register to hub (only after auth)
			if !c.hub.registerClient(c) {
				return
			}
			c.registered = true
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) sendAuthSuccess(claims *auth.JWTClaims) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":      "auth_success",
		"timestamp": time.Now(),
		"subject":   claims.Subject,
		"role":      claims.Role,
	})
	c.send <- data
}

func (c *Client) sendAuthFailed(reason string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":      "auth_failed",
		"timestamp": time.Now(),
		"reason":    reason,
	})
	c.send <- data
}

func (c *Client) handleMessage(msg clientMessage) {
	switch msg.Type {
	case "subscribe":
		c.mu.Lock()
		c.subscriptions = make(map[MessageType]bool, len(msg.Events))
		for _, t := range msg.Events {
			c.subscriptions[t] = true
		}
		c.mu.Unlock()
		c.logger.Debug("WebSocket client subscribed",
			zap.String("remote_addr", c.remoteAddr()),
			zap.Int("events", len(msg.Events)))
	default:
		c.logger.Debug("Ignoring client message",
			zap.String("remote_addr", c.remoteAddr()),
			zap.String("type", msg.Type))
	}
}

// writePump handles writing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles WebSocket upgrade requests
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: hub.logger,
	}

	// Start read and write pumps in separate goroutines
	go client.writePump()
	go client.readPump()
}
