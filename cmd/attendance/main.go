package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/presenca/attendance-notify/internal/api"
	"github.com/presenca/attendance-notify/internal/cache"
	"github.com/presenca/attendance-notify/internal/client"
	"github.com/presenca/attendance-notify/internal/config"
	"github.com/presenca/attendance-notify/internal/dispatch"
	"github.com/presenca/attendance-notify/internal/repo"
	"github.com/presenca/attendance-notify/internal/roster"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.LoadAll()
	if err != nil {
		return err
	}

	log.Info("attendance-notify starting",
		"addr", cfg.Server.Address,
		"send_interval", cfg.Dispatch.SendInterval.String(),
		"roster", cfg.Roster.Path,
		"redis", cfg.Redis.Enabled,
	)

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		return err
	}
	defer db.Close()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	if err := db.PingContext(bootCtx); err != nil {
		return err
	}

	store := repo.NewPostgres(db)
	if err := store.Migrate(bootCtx); err != nil {
		return err
	}
	if err := store.SeedDefaults(bootCtx); err != nil {
		return err
	}

	gateway := client.NewGatewayClient(cfg.Gateway.URL)

	pipeline, err := dispatch.New(gateway, store, cfg.Dispatch.SendInterval, log)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pipeline.WithReceipts(cache.NewRedisReceipts(rdb, cfg.Redis.TTL))
	}

	handler := api.NewHandler(
		store,
		store,
		store,
		roster.NewStore(cfg.Roster.Path),
		pipeline,
		api.SessionConfig{
			SigningKey: cfg.Auth.SigningKey,
			Issuer:     cfg.Auth.Issuer,
			TTL:        cfg.Auth.SessionTTL,
		},
	)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
