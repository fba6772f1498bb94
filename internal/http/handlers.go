package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"netchi-api-go/internal/auth"
	"netchi-api-go/internal/config"
	"netchi-api-go/internal/models"
	"netchi-api-go/internal/store"
	"netchi-api-go/internal/token"
)

type Server struct {
	cfg     *config.Config
	auth    *auth.Service
	tokens  *token.Issuer
	orders  store.OrderStore
	log     *zap.Logger
	schemas *schemas

	hub        *Hub
	wsUpgrader *websocket.Upgrader
}

func NewServer(cfg *config.Config, authSvc *auth.Service, tokens *token.Issuer, orders store.OrderStore, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(securityHeaders())
	r.Use(cors(cfg.Origins()))
	r.Use(logging(log))
	if cfg.RateLimitRPS > 0 {
		r.Use(rateLimit(newIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}
	if cfg.ReqTimeoutSec > 0 {
		r.Use(timeout(time.Duration(cfg.ReqTimeoutSec) * time.Second))
	}

	s := &Server{cfg: cfg, auth: authSvc, tokens: tokens, orders: orders, log: log, schemas: mustLoadSchemas(), hub: newHub(log)}
	s.wsUpgrader = s.upgrader()

	v1 := r.Group("/api/v1")

	// Auth
	v1.POST("/auth/login", s.authLogin)
	v1.POST("/auth/register", s.authRegister)
	v1.POST("/auth/request-otp", s.authRequestOtp)
	v1.POST("/auth/verify-otp", s.authVerifyOtp)

	// Protected Routes (User Token)
	authorized := v1.Group("")
	authorized.Use(AuthMiddleware(s.tokens))
	{
		authorized.GET("/auth/me", s.authMe)
		authorized.GET("/orders", RequireType(models.UserTypeAdmin), s.listOrders)
		authorized.GET("/orders/:id", s.getOrder)
		authorized.GET("/orders/user/:userId", s.listUserOrders)
		authorized.POST("/orders", s.createOrder)
		authorized.PUT("/orders/:id", s.updateOrder)
		authorized.DELETE("/orders/:id", RequireType(models.UserTypeAdmin), s.deleteOrder)
	}

	// Real-time order updates, token in ?access_token=
	r.GET("/hubs/order", s.orderHub)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})
	return r
}
