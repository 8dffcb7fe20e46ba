package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ebirth/internal/notify"
	"ebirth/internal/platform/config"
	"ebirth/internal/platform/httpserver"
	"ebirth/internal/platform/logger"
	"ebirth/internal/platform/metrics"
	"ebirth/internal/platform/middleware"
	platformredis "ebirth/internal/platform/redis"
	"ebirth/internal/registration/service"
	"ebirth/internal/registration/store"
	"ebirth/internal/registration/ubrn"
	"ebirth/internal/sequence"
	"ebirth/internal/ussd/handler"
	"ebirth/internal/ussd/session"
)

func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	st, err := buildStore(ctx, db, log)
	if err != nil {
		return err
	}
	alloc, err := buildAllocator(ctx, db, redisClient, log)
	if err != nil {
		return err
	}
	notifier := buildNotifier(cfg, log)
	if closer, ok := notifier.(*notify.KafkaSender); ok {
		defer closer.Close()
	}

	m := metrics.New()
	gen := ubrn.NewGenerator(cfg.UBRNPrefix, alloc)
	svc := service.New(st, gen, notifier,
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	engine := session.New(svc, svc,
		session.WithRejectPolicy(cfg.RejectPolicy),
		session.WithLogger(log),
		session.WithMetrics(m),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	handler.New(engine, handler.WithLogger(log), handler.WithMetrics(m)).Register(r)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "reject_policy", string(cfg.RejectPolicy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildStore prefers Postgres when configured and falls back to the in-memory
// store for local development.
func buildStore(ctx context.Context, db *sql.DB, log *slog.Logger) (store.Store, error) {
	if db == nil {
		log.Warn("DATABASE_URL not set, registrations are held in memory only")
		return store.NewMemory(), nil
	}
	pg := store.NewPostgres(db)
	if err := pg.Schema(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}

// buildAllocator picks the daily-sequence backend: Redis when available,
// Postgres when only the database is, in-memory otherwise.
func buildAllocator(ctx context.Context, db *sql.DB, redisClient *platformredis.Client, log *slog.Logger) (sequence.Allocator, error) {
	if redisClient != nil {
		return sequence.NewRedis(redisClient.Client), nil
	}
	if db != nil {
		pg := sequence.NewPostgres(db)
		if err := pg.Schema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	}
	log.Warn("no redis or database configured, sequence numbers reset on restart")
	return sequence.NewMemory(), nil
}

func buildNotifier(cfg config.Config, log *slog.Logger) service.Notifier {
	if cfg.KafkaBrokers == "" {
		log.Warn("KAFKA_BROKERS not set, SMS messages are logged only")
		return notify.NewLogSender(log)
	}
	sender, err := notify.NewKafkaSender(strings.Split(cfg.KafkaBrokers, ","), cfg.SMSTopic)
	if err != nil {
		log.Warn("kafka unavailable, SMS messages are logged only", "error", err)
		return notify.NewLogSender(log)
	}
	log.Info("sms outbox connected", "topic", cfg.SMSTopic)
	return sender
}
