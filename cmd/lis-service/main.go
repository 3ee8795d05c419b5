package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/biotechlab/lis-backend/internal/lis/auth"
	"github.com/biotechlab/lis-backend/internal/lis/events"
	"github.com/biotechlab/lis-backend/internal/lis/handler"
	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/internal/lis/service"
	"github.com/biotechlab/lis-backend/pkg/config"
	"github.com/biotechlab/lis-backend/pkg/database"
	"github.com/biotechlab/lis-backend/pkg/httputil"
	"github.com/biotechlab/lis-backend/pkg/logger"
	"github.com/biotechlab/lis-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("lis-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("lis-service", cfg.Server.Environment)
	log.Info().Msg("starting LIS service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	store := repository.NewStore(db)
	tokens := auth.NewManager(&cfg.JWT)

	// Services
	brandService := service.NewBrandService(store, log)
	locationService := service.NewLocationService(store, log)
	inventoryService := service.NewInventoryService(store, publisher, log, cfg.Inventory.LowStockThreshold)
	purchaseService := service.NewPurchaseService(store, publisher, log)
	transactionService := service.NewTransactionService(store, publisher, log, cfg.Inventory.LowStockThreshold)
	customerService := service.NewCustomerService(store, log)
	userService := service.NewUserService(store, tokens, publisher, log)

	// Handlers
	brandHandler := handler.NewBrandHandler(brandService, log)
	locationHandler := handler.NewLocationHandler(locationService, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, log)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, log)
	transactionHandler := handler.NewTransactionHandler(transactionService, log)
	customerHandler := handler.NewCustomerHandler(customerService, log)
	userHandler := handler.NewUserHandler(userService, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "lis-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Route("/brands", func(r chi.Router) {
				r.Get("/", brandHandler.List)
				r.Post("/", brandHandler.Create)
				r.Get("/code", brandHandler.GenerateCode)
				r.Get("/{id}", brandHandler.Get)
				r.Put("/{id}", brandHandler.Update)
				r.Delete("/{id}", brandHandler.Delete)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", locationHandler.List)
				r.Post("/", locationHandler.Create)
				r.Get("/{id}", locationHandler.Get)
				r.Put("/{id}", locationHandler.Update)
				r.Delete("/{id}", locationHandler.Delete)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", inventoryHandler.List)
				r.Post("/", inventoryHandler.Create)
				r.Get("/alerts", inventoryHandler.Alerts)
				r.Get("/highest", inventoryHandler.Highest)
				r.Get("/lowest", inventoryHandler.Lowest)
				r.Get("/expiring", inventoryHandler.Expiring)
				r.Get("/{itemCode}", inventoryHandler.Get)
				r.Put("/{itemCode}", inventoryHandler.Update)
				r.Delete("/{itemCode}", inventoryHandler.Delete)
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Get("/", purchaseHandler.List)
				r.Post("/", purchaseHandler.Create)
				r.Get("/{id}", purchaseHandler.Get)
				r.Delete("/{id}", purchaseHandler.Delete)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", transactionHandler.List)
				r.Post("/", transactionHandler.Create)
				r.Get("/dashboard", transactionHandler.Dashboard)
				r.Get("/{id}", transactionHandler.Get)
				r.Delete("/{id}", transactionHandler.Delete)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", customerHandler.List)
				r.Post("/", customerHandler.Create)
				r.Get("/{id}", customerHandler.Get)
				r.Put("/{id}", customerHandler.Update)
				r.Delete("/{id}", customerHandler.Delete)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
