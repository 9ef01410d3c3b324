package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tgnpdcl/be-wf-sanctions/internal/client"
	"github.com/tgnpdcl/be-wf-sanctions/internal/config"
	"github.com/tgnpdcl/be-wf-sanctions/internal/database"
	"github.com/tgnpdcl/be-wf-sanctions/internal/handler"
	"github.com/tgnpdcl/be-wf-sanctions/internal/logger"
	"github.com/tgnpdcl/be-wf-sanctions/internal/middleware"
	"github.com/tgnpdcl/be-wf-sanctions/internal/repository"
	"github.com/tgnpdcl/be-wf-sanctions/internal/service"
	"github.com/tgnpdcl/be-wf-sanctions/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Sanctions Workflow Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize repositories
	claimRepo := repository.NewClaimRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Load the workflow configuration snapshot
	steps, err := configRepo.LoadSteps(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load workflow steps")
	}
	limits, err := configRepo.LoadLimits(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load sanction limits")
	}
	engine := service.NewEngineProvider(workflow.NewEngine(steps, limits))
	log.Info().
		Int("active_steps", len(steps.Active())).
		Msg("Workflow configuration loaded")

	// Initialize external clients
	identityClient := client.NewIdentityClient(cfg.Identity.BaseURL)

	natsURL := ""
	if cfg.NATS.Enabled {
		natsURL = cfg.NATS.URL
	}
	notifier, err := client.NewNotificationPublisher(natsURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer notifier.Close()

	// Initialize services
	locks := service.NewClaimLocks()
	workflowService := service.NewWorkflowService(claimRepo, auditRepo, identityClient, notifier, engine, locks, log)
	allocationService := service.NewAllocationService(claimRepo, identityClient, notifier, engine, locks, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(workflowService, allocationService, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Claim routes
	mux.HandleFunc("/api/v1/claims", httpHandler.CreateClaim)
	mux.HandleFunc("/api/v1/claims/get", httpHandler.GetClaim)
	mux.HandleFunc("/api/v1/claims/allocate", httpHandler.Allocate)
	mux.HandleFunc("/api/v1/claims/process", httpHandler.Process)
	mux.HandleFunc("/api/v1/claims/queue", httpHandler.Queue)
	mux.HandleFunc("/api/v1/claims/unfinished", httpHandler.Unfinished)
	mux.HandleFunc("/api/v1/claims/history", httpHandler.History)

	// Apply middleware. RequestID wraps Logger so the ID is on the context
	// before the access log line is written.
	var h http.Handler = mux
	h = middleware.Logger(&log)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(&log)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(30 * time.Second)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
