package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/accessride/internal/config"
	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/dispatch"
	"github.com/example/accessride/internal/fare"
	httpapi "github.com/example/accessride/internal/http"
	"github.com/example/accessride/internal/ingest"
	"github.com/example/accessride/internal/lifecycle"
	"github.com/example/accessride/internal/logging"
	"github.com/example/accessride/internal/matching"
	"github.com/example/accessride/internal/payments"
	"github.com/example/accessride/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	var rides storage.RideStore
	var history storage.HistoryStore
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer ps.Close()
		rides, history = ps, ps
	} else {
		ms := storage.NewMemoryStore()
		rides, history = ms, ms
		logger.Warn("PG_DSN not set, using in-memory ride store")
	}

	var dir directory.DriverDirectory
	if cfg.RedisAddr != "" {
		rd := directory.NewRedisDirectory(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		defer rd.Close()
		dir = rd
	} else {
		dir = directory.NewIndex()
		logger.Warn("REDIS_ADDR not set, using in-memory driver directory")
	}

	var kp *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		kp = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaLocationTopic, cfg.KafkaEventTopic)
		defer kp.Close()
	}

	wsreg := dispatch.NewWSRegistry()
	notifier := dispatch.NewPushDispatcher(cfg.PushEndpoint, cfg.PushKey, wsreg)

	var gateway payments.Gateway
	if cfg.PaymentGateway == "stripe" {
		gateway = payments.NewStripeGateway(cfg.StripeAPIKey)
	} else {
		gateway = payments.NewMockGateway()
	}

	ctrl := lifecycle.NewController(rides, history, dir, notifier, logger)
	ctrl.SpeedKmh = cfg.AverageSpeedKmh
	ctrl.Rates = fare.Rates{Base: cfg.FareBase, PerKm: cfg.FarePerKm, PerMinute: cfg.FarePerMinute}
	ctrl.Currency = cfg.Currency
	ctrl.Payments = gateway
	if kp != nil {
		ctrl.Events = kp
	}

	srv := httpapi.NewServer(httpapi.Options{
		Controller: ctrl,
		Matching:   matching.NewService(dir),
		Directory:  dir,
		Kafka:      kp,
		WSReg:      wsreg,
		Logger:     logger,
		JWTSecret:  []byte(cfg.JWTSecret),
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(b)); err != nil {
			return err
		}
	}
	return nil
}
