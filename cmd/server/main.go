package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-checkin/internal/app"
	"github.com/iliyamo/event-checkin/internal/checkin"
	"github.com/iliyamo/event-checkin/internal/config"
	"github.com/iliyamo/event-checkin/internal/handler"
	"github.com/iliyamo/event-checkin/internal/logging"
	"github.com/iliyamo/event-checkin/internal/middleware"
	"github.com/iliyamo/event-checkin/internal/queue"
	"github.com/iliyamo/event-checkin/internal/router"
	queue_publisher "github.com/iliyamo/event-checkin/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environments set variables directly

	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events checkin.Publisher
	if cfg.AMQPURL != "" {
		pub := queue_publisher.New(cfg.AMQPURL, log.WithField("component", "publisher"))
		defer pub.Close()
		events = pub

		audit := &queue.AuditConsumer{URL: cfg.AMQPURL, Path: cfg.AuditLogPath, Log: log.WithField("component", "audit")}
		go func() { _ = audit.Run(ctx) }()
	} else {
		log.Warn("RABBITMQ_URL not set; transition events are not published")
	}

	a, err := app.Open(cfg, log, events)
	if err != nil {
		log.WithError(err).Fatal("start check-in engine")
	}
	defer a.Close()

	stations := checkin.NewStations(a.Service, cfg.DebounceWindow)
	go pruneStations(ctx, stations, cfg.StationIdleTTL, log)

	// Redis backs rate limiting and the stats cache; both degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and stats cache disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
				"station": middleware.StationID(c),
			}).Info("request")
			return nil
		},
	}))

	router.RegisterRoutes(e, a.DB)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, a.Operators), cfg.JWTSecret)
	router.RegisterStation(e, router.StationDeps{
		Checkin:   handler.NewCheckinHandler(a.Service, stations),
		Stats:     handler.NewStatsHandler(a.Stats),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.WithField("component", "ratelimit")),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log.WithField("component", "cache")),
	}, cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(a.Service, a.Issuer), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

func pruneStations(ctx context.Context, stations *checkin.Stations, idle time.Duration, log logrus.FieldLogger) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := stations.Prune(now, idle); n > 0 {
				log.WithField("pruned", n).Debug("dropped idle stations")
			}
		}
	}
}
