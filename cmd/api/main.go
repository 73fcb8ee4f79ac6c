package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/stackmint/customer-directory/internal/config"
	"github.com/stackmint/customer-directory/internal/db"
	"github.com/stackmint/customer-directory/internal/handler"
	"github.com/stackmint/customer-directory/internal/metrics"
	"github.com/stackmint/customer-directory/internal/repository"
	"github.com/stackmint/customer-directory/internal/service"
)

func main() {
	_ = godotenv.Load() // allow .env for local runs

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting customer directory API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Connect to database
	database, err := db.New(db.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("connected to database", slog.String("driver", cfg.Database.Driver))

	// Apply schema
	if err := db.EnsureSchema(context.Background(), database); err != nil {
		logger.Error("failed to apply database schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("database schema ready")

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(database.DB)

	// Initialize services
	customerSvc := service.NewCustomerService(customerRepo, logger)

	// Initialize handlers
	customerHandler := handler.NewCustomerHandler(customerSvc, logger)
	healthHandler := handler.NewHealthHandler(database.DB.DB, logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(handler.RequestIDMiddleware)
	r.Use(handler.RecoveryMiddleware(logger))
	r.Use(handler.LoggingMiddleware(logger))
	r.Use(handler.CORSMiddleware)
	r.Use(metrics.InstrumentHandler)

	// Register routes
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", customerHandler.CreateCustomer)
		r.Get("/", customerHandler.ListCustomers)
		r.Get("/{id}", customerHandler.GetCustomer)
		r.Patch("/{id}", customerHandler.UpdateCustomer)
		r.Delete("/{id}", customerHandler.DeleteCustomer)
		r.Post("/{id}/addresses", customerHandler.AddAddress)
		r.Patch("/{id}/addresses/{addressId}", customerHandler.UpdateAddress)
		r.Delete("/{id}/addresses/{addressId}", customerHandler.DeleteAddress)
		r.Patch("/{id}/only-one-address", customerHandler.SetOnlyOneAddress)
	})

	// Create server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", slog.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}
