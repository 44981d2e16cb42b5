package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/config"
	"github.com/DoyleJ11/duel-draft-backend/internal/generals"
	"github.com/DoyleJ11/duel-draft-backend/internal/httpapi"
	"github.com/DoyleJ11/duel-draft-backend/internal/hub"
	"github.com/DoyleJ11/duel-draft-backend/internal/lobby"
	"github.com/DoyleJ11/duel-draft-backend/internal/metrics"
	"github.com/DoyleJ11/duel-draft-backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Development)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	rec, closeStore, err := openStore(cfg.Database.DSN, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeStore()) }()

	pool := generals.Default()
	if len(cfg.Draft.Generals) > 0 {
		pool = generals.NewPool(cfg.Draft.Generals)
	}

	h := hub.NewHub(ctx, lobby.Deps{
		Generals: pool,
		Options:  cfg.DraftOptions(),
		Recorder: rec,
		Metrics:  m,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.SetupRoutes(h, rec, reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		select {
		case <-h.Done():
		case <-shutdownCtx.Done():
			err = multierr.Append(err, shutdownCtx.Err())
		}
		return err
	})
	return g.Wait()
}

// openStore picks Postgres when a DSN is configured and memory otherwise.
func openStore(dsn string, logger *zap.Logger) (store.Recorder, func() error, error) {
	if dsn == "" {
		logger.Info("no database configured, keeping draft records in memory")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
	s, err := store.Open(dsn, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
