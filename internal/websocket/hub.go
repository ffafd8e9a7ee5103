package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin dashboards are allowed; the token check below is the gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one subscribed dashboard connection
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans security events out to the connected admin dashboards. Slow
// consumers are dropped rather than allowed to stall the dispatch loop.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	logger     *zap.Logger
}

// NewHub returns a hub ready to Run
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

// Publish queues an event for delivery to every connected dashboard
func (h *Hub) Publish(event []byte) {
	select {
	case h.broadcast <- event:
	default:
		// Nobody is draining the queue; live events are droppable, the
		// persisted audit trail is the record.
	}
}

// Run owns the client set; all membership changes go through its channels so
// no lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("dashboard subscribed", zap.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("dashboard unsubscribed", zap.Int("clients", len(h.clients)))
			}
		case event := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dashboard dropped: send buffer full")
				}
			}
		}
	}
}

func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for event := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; the stream is one-way. Its job is to
// notice the close and unregister.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("dashboard read error", zap.Error(err))
			}
			return
		}
	}
}

// ServeWs upgrades an authenticated connection to the event stream. The token
// comes in the query string because browsers cannot set headers on the
// WebSocket handshake. Only ROLE_ADMIN and ROLE_DEV principals may subscribe.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		hub.logger.Info("event stream rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if !hasAdminAuthority(token.Claims) {
		hub.logger.Info("event stream rejected: insufficient authority")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	hub.register <- cl
	go cl.writePump()
	go cl.readPump()
}

func hasAdminAuthority(claims jwt.Claims) bool {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	raw, ok := mapClaims["authorities"].([]interface{})
	if !ok {
		return false
	}
	for _, entry := range raw {
		if s, _ := entry.(string); s == "ROLE_ADMIN" || s == "ROLE_DEV" {
			return true
		}
	}
	return false
}
