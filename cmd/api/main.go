package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/chat"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/config"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/database"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/http/handlers"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/http/middleware"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/logging"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/metrics"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/models"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.DBDSN == "" || cfg.JWTSecret == "" {
		log.Fatal("DB_DSN and JWT_SECRET must be set")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect db", zap.Error(err))
	}

	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	hub := ws.NewHub(m, logger)
	svc := chat.NewService(db, ws.ActivityPusher{Hub: hub}, hub, m, logger)

	r := gin.Default()

	// Auth
	authH := &handlers.AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, Log: logger}
	r.POST("/api/v1/auth/register", authH.Register)
	r.POST("/api/v1/auth/login", authH.Login)

	// Push channel
	wsH := &handlers.WSHandler{
		Hub:                  hub,
		JWTSecret:            cfg.JWTSecret,
		WSInsecureSkipVerify: cfg.WSInsecureSkipVerify,
		Log:                  logger,
	}
	r.GET("/ws", wsH.Handle)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Protected routes
	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	limiter := middleware.NewRateLimiter(cfg.SendRPS, cfg.SendBurst)

	chatH := &handlers.ChatHandler{Svc: svc, Log: logger}
	authed.GET("/contacts", chatH.ListContacts)
	authed.GET("/messages/:id", chatH.ListMessages)
	authed.POST("/messages/:id", limiter.Middleware(), chatH.SendMessage)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening", zap.String("addr", addr))
	logger.Fatal("server stopped", zap.Error(r.Run(addr)))
}
