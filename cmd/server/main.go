package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"Sahaya/internal/audit"
	"Sahaya/internal/dispatch"
	"Sahaya/internal/geo"
	"Sahaya/internal/handler"
	"Sahaya/internal/models"
	"Sahaya/internal/notify"
	"Sahaya/internal/profile"
	"Sahaya/internal/ratelimit"
	"Sahaya/internal/store"
	"Sahaya/internal/sweeper"
	"Sahaya/pkg/config"
	"Sahaya/pkg/database"
	"Sahaya/pkg/logger"
	"Sahaya/pkg/metrics"
	"Sahaya/pkg/sse"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.Alert{}, &models.EmergencyContact{}, &models.AuditEntry{}); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	m := metrics.New()
	events := sse.NewHub()

	auditLog := audit.NewLog(db)
	auditLog.AddObserver(func(entry models.AuditEntry) {
		m.AuditAppended()
		events.Publish("audit", entry)
	})

	validator := geo.NewValidator(geo.Bounds{
		MinLat: cfg.GeoMinLat, MaxLat: cfg.GeoMaxLat,
		MinLon: cfg.GeoMinLon, MaxLon: cfg.GeoMaxLon,
	})

	directory := profile.NewCachedDirectory(profile.NewGormDirectory(db), 30*time.Second)
	responders := profile.NewGormResponderRegistry(db)

	notifier := notify.NewNotifier(
		[]notify.Channel{
			notify.NewSMSChannel(notify.LogSMSClient{}),
			notify.NewMessengerChannel(notify.LogMessengerClient{}),
		},
		auditLog,
		notify.RetryPolicy{MaxAttempts: cfg.NotifyMaxAttempts, Backoff: cfg.NotifyBackoff},
		notify.WithSubjectPush(notify.NewPushChannel(notify.LogPushClient{}, "Sahaya")),
		notify.WithAuthority(notify.NewAuthorityChannel(notify.LogAuthorityClient{})),
		notify.WithMetrics(m),
	)

	var limiterStore limiter.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limiterStore, err = ratelimit.NewRedisStore(client)
		if err != nil {
			logger.Fatal("failed to init redis rate-limit store", zap.Error(err))
		}
	}
	limits := ratelimit.New(limiterStore, map[string]string{
		"create": cfg.CreateRate,
		"cancel": cfg.CancelRate,
	})

	alertStore := store.NewAlertStore(db)
	svc := dispatch.NewService(alertStore, auditLog, notifier, validator, directory, responders,
		dispatch.WithRateLimiter(limits),
		dispatch.WithServiceMetrics(m),
	)

	sw := sweeper.New(alertStore, auditLog, notifier, directory, m, cfg.EscalateAfter)
	if err := sw.Start(cfg.SweepSchedule); err != nil {
		logger.Fatal("failed to start sweeper", zap.Error(err))
	}
	defer sw.Stop()

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.NewHandlers(db, svc, events).Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		logger.Info("dispatch core listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	// let in-flight fan-outs settle before the process exits
	svc.Drain()
}
