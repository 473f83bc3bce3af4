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
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-backoffice/internal/config"
	"github.com/iliyamo/cinema-backoffice/internal/database"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/queue"
	"github.com/iliyamo/cinema-backoffice/internal/router"
	"github.com/iliyamo/cinema-backoffice/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine: production passes real environment variables.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		TLS:      cfg.DBTLS,
		Timezone: cfg.DBTimezone,
		UseUTC:   cfg.DBUseUTC,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(ctx, db, model.Registry()); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := database.Seed(ctx, db); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}

	// Redis is optional: without it caching and rate limiting are skipped.
	var rdb *redis.Client
	if client, err := config.NewRedisClient(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable, cache and rate limit disabled")
	} else {
		rdb = client
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		DB:        db,
		Redis:     rdb,
		Notifier:  service.NewPublisher(cfg.RabbitURL, log),
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.MailConsumer {
		consumer := &queue.Consumer{
			URL:    cfg.RabbitURL,
			Mailer: queue.LogMailer{Log: log, BaseURL: cfg.ConfirmBaseURL},
			Log:    log,
		}
		g.Go(func() error { return consumer.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(sctx)
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("bye")
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
