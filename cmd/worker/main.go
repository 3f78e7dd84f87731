package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jwalitptl/bloodbank-api/internal/config"
	"github.com/jwalitptl/bloodbank-api/internal/email"
	"github.com/jwalitptl/bloodbank-api/internal/repository/postgres"
	donorService "github.com/jwalitptl/bloodbank-api/internal/service/donor"
	inventoryService "github.com/jwalitptl/bloodbank-api/internal/service/inventory"
	"github.com/jwalitptl/bloodbank-api/internal/service/notification"
	maintenance "github.com/jwalitptl/bloodbank-api/internal/worker"
	"github.com/jwalitptl/bloodbank-api/pkg/logger"
	"github.com/jwalitptl/bloodbank-api/pkg/messaging/redis"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
	"github.com/jwalitptl/bloodbank-api/pkg/worker"
)

func setupMetricsServer(port int, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewZap(cfg.Log.Level, cfg.Log.Format, "bloodbank-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal("failed to create redis broker", zap.Error(err))
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics("bloodbank_worker", reg)

	// Initialize repositories
	base := postgres.NewBaseRepository(db, cfg.Database.QueryTimeout)
	outboxRepo := postgres.NewOutboxRepository(base)
	donorRepo := postgres.NewDonorRepository(base)
	inventoryRepo := postgres.NewInventoryRepository(base)

	processor, err := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox.ToWorkerConfig(), log.Named("outbox"), m)
	if err != nil {
		log.Fatal("invalid outbox config", zap.Error(err))
	}

	alerter := notification.NewEmergencyAlerter(donorRepo, email.NewSMTPService(cfg.SMTP), broker, log.Named("alerts"))

	jobs := maintenance.NewMaintenanceWorker(
		donorService.NewService(donorRepo, time.Now, m),
		inventoryService.NewService(inventoryRepo, cfg.Inventory.CacheTTL, time.Now, m),
		cfg.Worker.EligibilityInterval,
		cfg.Worker.ExpiryInterval,
		log.Named("maintenance"),
	)

	metricsSrv := setupMetricsServer(cfg.Worker.MetricsPort, reg, log)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := alerter.Run(ctx); err != nil {
			log.Error("emergency alerter stopped", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		jobs.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server forced to shutdown", zap.Error(err))
	}
	log.Info("worker exited properly")
}
