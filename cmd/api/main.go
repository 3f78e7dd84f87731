package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/bloodbank-api/internal/config"
	authhandler "github.com/jwalitptl/bloodbank-api/internal/handler/auth"
	bankhandler "github.com/jwalitptl/bloodbank-api/internal/handler/bloodbank"
	"github.com/jwalitptl/bloodbank-api/internal/handler/dashboard"
	donationhandler "github.com/jwalitptl/bloodbank-api/internal/handler/donation"
	donorhandler "github.com/jwalitptl/bloodbank-api/internal/handler/donor"
	"github.com/jwalitptl/bloodbank-api/internal/handler/health"
	inventoryhandler "github.com/jwalitptl/bloodbank-api/internal/handler/inventory"
	requesthandler "github.com/jwalitptl/bloodbank-api/internal/handler/request"
	userhandler "github.com/jwalitptl/bloodbank-api/internal/handler/user"
	"github.com/jwalitptl/bloodbank-api/internal/middleware"
	"github.com/jwalitptl/bloodbank-api/internal/repository/postgres"
	"github.com/jwalitptl/bloodbank-api/internal/router"
	authService "github.com/jwalitptl/bloodbank-api/internal/service/auth"
	bankService "github.com/jwalitptl/bloodbank-api/internal/service/bloodbank"
	donationService "github.com/jwalitptl/bloodbank-api/internal/service/donation"
	donorService "github.com/jwalitptl/bloodbank-api/internal/service/donor"
	inventoryService "github.com/jwalitptl/bloodbank-api/internal/service/inventory"
	requestService "github.com/jwalitptl/bloodbank-api/internal/service/request"
	userService "github.com/jwalitptl/bloodbank-api/internal/service/user"
	"github.com/jwalitptl/bloodbank-api/pkg/auth"
	"github.com/jwalitptl/bloodbank-api/pkg/logger"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
	"github.com/jwalitptl/bloodbank-api/pkg/security"
	"github.com/jwalitptl/bloodbank-api/pkg/validator"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("bloodbank", reg)

	// Initialize repositories
	base := postgres.NewBaseRepository(db, cfg.Database.QueryTimeout)
	userRepo := postgres.NewUserRepository(base)
	bankRepo := postgres.NewBloodBankRepository(base)
	inventoryRepo := postgres.NewInventoryRepository(base)
	donorRepo := postgres.NewDonorRepository(base)
	donationRepo := postgres.NewDonationRepository(base)
	requestRepo := postgres.NewBloodRequestRepository(base)
	uow := postgres.NewUnitOfWork(base)

	// Initialize services
	clock := time.Now
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(userRepo, hasher, auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry))
	userSvc := userService.NewService(userRepo, hasher)
	inventorySvc := inventoryService.NewService(inventoryRepo, cfg.Inventory.CacheTTL, clock, m)
	bankSvc := bankService.NewService(bankRepo, inventorySvc)
	donorSvc := donorService.NewService(donorRepo, clock, m)
	donationSvc := donationService.NewService(uow, donationRepo, inventorySvc, clock, m)
	requestSvc := requestService.NewService(uow, requestRepo, userRepo, donorRepo, inventorySvc, clock, m)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit: middleware.RateLimiterConfig{
				RPS:   cfg.RateLimit.RequestsPerSecond,
				Burst: cfg.RateLimit.Burst,
			},
			CORSConfig:     middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins),
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		middleware.NewAuthMiddleware(authSvc),
		m,
		[]router.Handler{
			health.NewHandler(db, reg),
			authhandler.NewHandler(authSvc),
		},
		[]router.ProtectedHandler{
			userhandler.NewHandler(userSvc),
			dashboard.NewHandler(bankSvc, requestSvc, inventorySvc),
			bankhandler.NewHandler(bankSvc),
			inventoryhandler.NewHandler(inventorySvc),
			donorhandler.NewHandler(donorSvc),
			donationhandler.NewHandler(donationSvc),
			requesthandler.NewHandler(requestSvc),
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
