// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/eventplan/eventplan/internal/config"
	"github.com/eventplan/eventplan/internal/database"
	"github.com/eventplan/eventplan/internal/handler"
	"github.com/eventplan/eventplan/internal/notify"
	"github.com/eventplan/eventplan/internal/repository"
	"github.com/eventplan/eventplan/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	// ── 1. Connect to PostgreSQL and apply migrations ─────────────────────
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("connected to postgres")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	clientRepo := repository.NewClientRepository(pool)

	notifiers := notify.Multi{notify.NewWebhookNotifier(cfg.WebhookTimeout)}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL)
		if err != nil {
			slog.Error("amqp", "error", err)
			os.Exit(1)
		}
		defer amqpNotifier.Close()
		notifiers = append(notifiers, amqpNotifier)
		slog.Info("amqp notifications enabled")
	}

	eventSvc := service.NewEventService(eventRepo, participantRepo, clientRepo, notifiers)
	categorySvc := service.NewCategoryService(categoryRepo)
	clientSvc := service.NewClientService(clientRepo)

	eventHandler := handler.NewEventHandler(eventSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	clientHandler := handler.NewClientHandler(clientSvc)

	// ── 3. Start the cleanup scheduler ────────────────────────────────────
	sweeper, err := eventSvc.StartCleanupScheduler(cfg.CleanupSchedule)
	if err != nil {
		slog.Error("cleanup scheduler", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger)

	r.Get("/status", handler.Status)

	r.Route("/clients", func(r chi.Router) {
		r.Post("/", clientHandler.CreateClient)
		r.Get("/", clientHandler.ListClients)
	})

	r.Group(func(r chi.Router) {
		r.Use(handler.ClientAuth(clientRepo))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.CreateEvent)
			r.Get("/", eventHandler.ListEvents)
			r.Get("/{eventID}", eventHandler.GetEvent)
			r.Get("/{eventID}/stats", eventHandler.GetEventStats)
			r.Patch("/{eventID}", eventHandler.UpdateEvent)
			r.Put("/{eventID}/complete", eventHandler.CompleteEvent)
			r.Post("/{eventID}/participants", eventHandler.AddParticipant)
			r.Patch("/{eventID}/participants/{participantID}/status", eventHandler.UpdateParticipantStatus)
			r.Put("/{eventID}/participants/{participantID}/checkin", eventHandler.CheckInParticipant)
			r.Delete("/{eventID}/participants/{userID}", eventHandler.RemoveParticipant)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", categoryHandler.CreateCategory)
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{categoryID}", categoryHandler.GetCategory)
			r.Patch("/{categoryID}", categoryHandler.UpdateCategory)
			r.Delete("/{categoryID}", categoryHandler.DeleteCategory)
		})
	})

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
