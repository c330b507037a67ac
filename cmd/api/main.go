package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"tasklight/internal/config"
	"tasklight/internal/db"
	"tasklight/internal/email"
	apihttp "tasklight/internal/http"
	"tasklight/internal/repository"
	"tasklight/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	identityRepo := repository.NewPgIdentityRepository(pool)
	otpRepo := repository.NewPgOTPRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var otpLimiter service.OTPRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	otpTTL := time.Duration(cfg.OTPTTLMinutes) * time.Minute
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour

	otpSvc := service.NewOTPService(logger, identityRepo, otpRepo, emailSender, otpLimiter, otpTTL)
	sessionSvc := service.NewSessionService(logger, sessionRepo, identityRepo, sessionTTL)

	authHandler := apihttp.NewAuthHandler(logger, otpSvc, sessionSvc, cfg.CookieSecure, sessionTTL)
	profileHandler := apihttp.NewProfileHandler(logger, identityRepo, sessionSvc, cfg.CookieSecure)
	metrics := apihttp.NewHTTPMetrics()
	router := apihttp.NewRouter(
		logger,
		authHandler,
		profileHandler,
		apihttp.SessionAuthMiddleware(sessionSvc),
		metrics,
		apihttp.HealthHandler(pool),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
