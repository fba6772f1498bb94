package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"netchi-api-go/internal/auth"
	"netchi-api-go/internal/models"
	"netchi-api-go/internal/store"
)

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// canAccess allows admins everything and other users only their own orders.
func canAccess(c *gin.Context, owner uuid.UUID) bool {
	return isAdmin(c) || owner == currentUserID(c)
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.ListOrders(c.Request.Context())
	if err != nil {
		s.log.Error("list orders", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, orders)
}

func (s *Server) listUserOrders(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	if !canAccess(c, userID) {
		c.JSON(403, gin.H{"error": "forbidden"})
		return
	}
	orders, err := s.orders.ListOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("list user orders", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(200, orders)
}

// loadOrder fetches the order named by :id and checks ownership.
func (s *Server) loadOrder(c *gin.Context) (*models.Order, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	order, err := s.orders.GetOrder(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !canAccess(c, order.UserID)) {
		c.JSON(404, gin.H{"error": "order not found"})
		return nil, false
	}
	if err != nil {
		s.log.Error("get order", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return nil, false
	}
	return order, true
}

func (s *Server) getOrder(c *gin.Context) {
	order, ok := s.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(200, order)
}

func (s *Server) createOrder(c *gin.Context) {
	var input struct {
		UserID      string  `json:"userId"`
		OrderNumber string  `json:"orderNumber"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if !bindSchema(c, s.schemas.createOrder, &input) {
		return
	}

	userID := currentUserID(c)
	if input.UserID != "" {
		id, err := uuid.Parse(input.UserID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user"})
			return
		}
		userID = id
	}
	if !canAccess(c, userID) {
		c.JSON(403, gin.H{"error": "forbidden"})
		return
	}
	if _, err := s.auth.CurrentUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(400, gin.H{"error": "invalid user"})
			return
		}
		s.writeAuthError(c, err)
		return
	}

	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		number = "ORD-" + strings.ToUpper(uuid.NewString()[:8])
	}
	order := models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrderNumber: number,
		Description: input.Description,
		Amount:      input.Amount,
		Status:      models.OrderPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.orders.CreateOrder(c.Request.Context(), &order); err != nil {
		s.log.Error("create order", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	s.log.Info("order created", zap.String("order_id", order.ID.String()))
	c.JSON(201, order)
}

func (s *Server) updateOrder(c *gin.Context) {
	var input struct {
		Description string             `json:"description"`
		Status      models.OrderStatus `json:"status"`
		Amount      *float64           `json:"amount"`
	}
	if !bindSchema(c, s.schemas.updateOrder, &input) {
		return
	}
	if !input.Status.Valid() {
		c.JSON(400, gin.H{"error": "invalid status"})
		return
	}

	order, ok := s.loadOrder(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	prev := order.Status
	order.Description = input.Description
	order.Status = input.Status
	if input.Amount != nil {
		order.Amount = *input.Amount
	}
	order.UpdatedAt = &now
	if input.Status == models.OrderCompleted {
		order.CompletedAt = &now
	}

	if err := s.orders.SaveOrder(c.Request.Context(), order); err != nil {
		s.log.Error("save order", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	s.log.Info("order updated", zap.String("order_id", order.ID.String()))
	if order.Status != prev {
		s.hub.PublishStatus(order.ID, order.Status, now)
	}
	c.JSON(200, order)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := s.orders.DeleteOrder(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(404, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		s.log.Error("delete order", zap.Error(err))
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	s.log.Info("order deleted", zap.String("order_id", id.String()))
	c.Status(204)
}
