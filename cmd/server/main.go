package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"scheduling-service/internal/app"
	"scheduling-service/internal/config"
	"scheduling-service/internal/events"
	"scheduling-service/internal/logger"
	"scheduling-service/internal/ratelimit"
	"scheduling-service/internal/server"
)

const serviceName = "scheduling-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Service: serviceName}).Fatal("invalid configuration", "error", err)
	}
	log := logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.LogConfiguration(log)

	pool, err := app.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to db", "error", err)
	}
	defer pool.Close()

	store := &app.Store{DB: pool}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to apply schema", "error", err)
	}

	var calendar app.CalendarSyncer = app.NoopCalendar{}
	if cfg.GoogleCalendarEnabled() {
		calendar = app.NewGoogleCalendar(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, store)
	} else {
		log.Warn("Google Calendar not configured; bookings will not be synced")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaBookingTopic)
	}
	defer publisher.Close()

	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow, "schedule")
	}

	appInstance := app.New(app.Options{
		Hosts:       store,
		Rules:       store,
		Bookings:    store,
		Calendar:    calendar,
		Events:      publisher,
		Log:         log,
		Location:    cfg.Location,
		SyncTimeout: cfg.CalendarSyncTimeout,
		EventPrefix: cfg.CalendarEventPrefix,
	})

	go appInstance.NewReconciler(cfg.SyncRetryInterval, cfg.SyncBatchSize, cfg.SyncMaxAttempts).Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router, err := server.NewRouter(cfg.TrustedProxies)
	if err != nil {
		log.Fatal("invalid trusted proxies", "error", err)
	}
	router.Use(gin.Recovery(), app.AccessLog(log))

	router.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	appInstance.RegisterRoutes(
		router.Group("/api"),
		app.AuthMiddleware(cfg.JWTSecret, cfg.StaticTokens),
		ratelimit.Middleware(limiter, log, true),
	)

	if err := server.Run(ctx, router, server.Options{
		Port:            cfg.Port,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, log); err != nil {
		log.Fatal("server error", "error", err)
	}
}
