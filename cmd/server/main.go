package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civis/internal/domain"
	"civis/internal/filestore"
	"civis/internal/pipeline"
	"civis/internal/pipeline/metrics"
	"civis/internal/pipeline/store"
	"civis/internal/platform/config"
	"civis/internal/platform/httpserver"
	"civis/internal/platform/logger"
	"civis/internal/platform/middleware"
	"civis/internal/platform/redis"
	"civis/internal/recognition/cache"
	"civis/internal/registry"
	httpapi "civis/internal/transport/http"
)

// main wires high-level dependencies and serves the pipeline API under /v1
// alongside the operational surface (health + metrics). Request validation,
// authentication and upload handling happen upstream.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files := filestore.NewLocal()

	reg := registry.New(cfg, files, log)
	if err := reg.Initialize(ctx); err != nil {
		log.Fatalf("registry initialization failed: %v", err)
	}
	defer reg.Shutdown()

	var historyStore store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		historyStore = store.NewPostgres(pool)
	}

	opts := []pipeline.Option{
		pipeline.WithMetrics(metrics.New()),
		pipeline.WithBatchConcurrency(cfg.BatchConcurrency),
	}
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, pipeline.WithCache(cache.New(redisClient.Client, cfg.RecognitionCacheTTL)))
	}

	svc := pipeline.New(reg, historyStore, files, log, opts...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(log))
	registerOps(router, reg)
	router.Mount("/v1", httpapi.NewHandler(svc).Routes())

	srv := httpserver.New(cfg.Addr, router)
	log.Printf("starting civis on %s", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

// registerOps exposes liveness, readiness and metrics. Readiness runs the
// full engine probes, so keep scrape intervals modest: the analysis probe
// bills a model call.
func registerOps(r chi.Router, reg *registry.Registry) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, reg.Status())
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		health := reg.HealthCheck(req.Context())
		status := http.StatusOK
		if health.Status != domain.AggregateHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
