package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"netchi-api-go/internal/models"
	"netchi-api-go/internal/store"
	"netchi-api-go/internal/token"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Event is one frame pushed to hub clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type OrderStatusChanged struct {
	OrderID   uuid.UUID          `json:"orderId"`
	Status    models.OrderStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

type hubMessage struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
}

type hubClient struct {
	conn   *websocket.Conn
	send   chan []byte
	claims *token.Claims
	userID uuid.UUID
}

// Hub fans order status changes out to clients subscribed per order.
type Hub struct {
	mu     sync.Mutex
	groups map[uuid.UUID]map[*hubClient]bool
	log    *zap.Logger
}

func newHub(log *zap.Logger) *Hub {
	return &Hub{groups: map[uuid.UUID]map[*hubClient]bool{}, log: log}
}

func (h *Hub) join(c *hubClient, orderID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[orderID]
	if !ok {
		g = map[*hubClient]bool{}
		h.groups[orderID] = g
	}
	g[c] = true
}

func (h *Hub) leave(c *hubClient, orderID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, orderID)
}

func (h *Hub) leaveLocked(c *hubClient, orderID uuid.UUID) {
	g := h.groups[orderID]
	delete(g, c)
	if len(g) == 0 {
		delete(h.groups, orderID)
	}
}

// remove drops c from every group and closes its send channel.
func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups {
		h.leaveLocked(c, id)
	}
	close(c.send)
}

// PublishStatus sends an OrderStatusChanged event to the order's group.
// Clients whose buffer is full miss the event.
func (h *Hub) PublishStatus(orderID uuid.UUID, status models.OrderStatus, at time.Time) {
	msg, err := json.Marshal(Event{Type: "OrderStatusChanged", Data: OrderStatusChanged{
		OrderID: orderID, Status: status, Timestamp: at,
	}})
	if err != nil {
		h.log.Error("marshal order event", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.groups[orderID] {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("hub client too slow, event dropped", zap.String("user_id", c.userID.String()))
		}
	}
}

func (c *hubClient) push(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// hubToken reads the bearer token from the access_token query parameter,
// which browsers must use for websockets, or the Authorization header.
func hubToken(c *gin.Context) string {
	if t := c.Query("access_token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Server) upgrader() *websocket.Upgrader {
	origins := map[string]bool{}
	for _, o := range s.cfg.Origins() {
		origins[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins["*"] || origins[origin]
		},
	}
}

// GET /hubs/order
func (s *Server) orderHub(c *gin.Context) {
	raw := hubToken(c)
	if raw == "" {
		c.JSON(401, gin.H{"error": "authorization_header_missing"})
		return
	}
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid_token"})
		return
	}
	userID, _ := claims.UserID()

	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("hub upgrade failed", zap.Error(err))
		return
	}
	client := &hubClient{conn: conn, send: make(chan []byte, sendBuffer), claims: claims, userID: userID}
	go client.writePump()
	client.push(Event{Type: "Connected", Data: gin.H{
		"message":   "connected to NetChi real-time updates",
		"userId":    userID,
		"timestamp": time.Now().UTC(),
	}})
	s.log.Info("hub client connected", zap.String("user_id", userID.String()))

	defer func() {
		s.hub.remove(client)
		s.log.Info("hub client disconnected", zap.String("user_id", userID.String()))
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg hubMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.handleHubMessage(client, msg)
	}
}

func (s *Server) handleHubMessage(client *hubClient, msg hubMessage) {
	orderID, err := uuid.Parse(msg.OrderID)
	if err != nil {
		client.push(Event{Type: "error", Data: gin.H{"message": "invalid order id"}})
		return
	}

	switch msg.Type {
	case "join":
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		order, err := s.orders.GetOrder(ctx, orderID)
		admin := client.claims.Type == string(models.UserTypeAdmin)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !admin && order.UserID != client.userID) {
			client.push(Event{Type: "error", Data: gin.H{"message": "order not found", "orderId": orderID}})
			return
		}
		if err != nil {
			s.log.Error("hub join", zap.Error(err))
			client.push(Event{Type: "error", Data: gin.H{"message": "internal error"}})
			return
		}
		s.hub.join(client, orderID)
		client.push(Event{Type: "Joined", Data: gin.H{"orderId": orderID}})
	case "leave":
		s.hub.leave(client, orderID)
		client.push(Event{Type: "Left", Data: gin.H{"orderId": orderID}})
	default:
		client.push(Event{Type: "error", Data: gin.H{"message": "unknown message type"}})
	}
}
