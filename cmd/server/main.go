package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"netchi-api-go/internal/auth"
	"netchi-api-go/internal/config"
	"netchi-api-go/internal/database"
	httpserver "netchi-api-go/internal/http"
	"netchi-api-go/internal/logger"
	"netchi-api-go/internal/sms"
	"netchi-api-go/internal/store"
	"netchi-api-go/internal/token"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	if cfg.EphemeralJWTKey {
		zl.Warn("JWT_KEY not set, using a random signing key; tokens will not survive a restart")
	}
	if cfg.OTPEchoCode && cfg.IsProduction() {
		zl.Warn("OTP_ECHO_CODE is on in production, verification codes are returned to clients")
	}

	db, err := database.Connect(cfg.DSN(), zl)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	st := store.NewGormStore(db)

	tokens, err := token.NewIssuer(cfg.JWTKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		zl.Fatal("token issuer", zap.Error(err))
	}

	sender := sms.New(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSender, 10*time.Second, zl)
	svc := auth.NewService(st, tokens, sender, zl, auth.Options{
		OTPTTL:            cfg.OTPTTL,
		MaxAttempts:       cfg.OTPMaxAttempts,
		PasswordMinLength: cfg.PasswordMinLength,
		EchoCode:          cfg.OTPEchoCode,
	})

	if cfg.SeedAdminUsername != "" {
		if _, err := svc.SeedAdmin(context.Background(), cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
			zl.Fatal("seed admin", zap.Error(err))
		}
	}

	r := httpserver.NewServer(cfg, svc, tokens, st, zl)
	zl.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("server", zap.Error(err))
	}
}
