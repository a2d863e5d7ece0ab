package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventbook/config"
	"eventbook/internal/cache"
	"eventbook/internal/database"
	"eventbook/internal/handler"
	"eventbook/internal/middleware"
	"eventbook/internal/payment"
	"eventbook/internal/queue"
	"eventbook/internal/repository"
	"eventbook/internal/service"
	"eventbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.LogLevel)
	defer logger.L.Sync()

	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis 只負責快取與事件串流，連不上時退回記憶體實作
	var availability cache.EventAvailabilityCache = cache.NoopEventAvailabilityCache{}
	var publisher queue.LedgerEventPublisher = queue.NewMemoryPublisher()
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, running without availability cache", zap.Error(err))
		} else {
			defer rdb.Close()
			availability = cache.NewRedisEventAvailabilityCache(rdb, cfg.Redis.CacheTTL)
			publisher = queue.NewRedisStreamPublisher(rdb)
		}
	}

	verifier, err := payment.NewHMACVerifier(cfg.Payment.WebhookSecret)
	if err != nil {
		log.Fatal("Failed to initialize payment verifier", zap.Error(err))
	}

	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	eventService := service.NewEventService(eventRepo, availability)
	bookingService := service.NewBookingService(pool, bookingRepo, eventRepo, availability, publisher,
		service.WithCancellationWindow(cfg.Ledger.CancellationWindow),
		service.WithCodeAttempts(cfg.Ledger.CodeAttempts),
	)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewEventHandler(eventService).RegisterRoutes(router, cfg.Auth.JWTSecret)
	handler.NewBookingHandler(bookingService, verifier).RegisterRoutes(router, cfg.Auth.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
