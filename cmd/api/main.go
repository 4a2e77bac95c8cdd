package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/nmhung311/Exp-Gest-System/internal/cache"
	"github.com/nmhung311/Exp-Gest-System/internal/http/handlers"
	"github.com/nmhung311/Exp-Gest-System/internal/http/response"
	"github.com/nmhung311/Exp-Gest-System/internal/notify"
	"github.com/nmhung311/Exp-Gest-System/internal/platform/mailer"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/pkg/config"
	"github.com/nmhung311/Exp-Gest-System/pkg/database"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
	mw "github.com/nmhung311/Exp-Gest-System/pkg/middleware"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.CreateSchema(ctx, pool); err != nil {
		logger.Error("Failed to create schema", "error", err)
		os.Exit(1)
	}

	// Repositories
	guestRepo := postgres.NewGuestRepo(pool)
	eventRepo := postgres.NewEventRepo(pool)
	tokenRepo := postgres.NewTokenRepo(pool)
	checkinRepo := postgres.NewCheckinRepo(pool)
	userRepo := postgres.NewUserRepo(pool)

	// Shared infrastructure
	hub := notify.NewHub()
	store := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	mail := newMailer(cfg)

	// Services
	tokenService := service.NewTokenService(tokenRepo, guestRepo)
	checkinService := service.NewCheckinService(tokenService, tokenRepo, guestRepo, checkinRepo, hub)
	rsvpService := service.NewRSVPService(tokenService, guestRepo)
	authService := service.NewAuthService(userRepo, cfg)

	// Handlers
	guestHandler := handlers.NewGuestHandler(guestRepo, tokenService, checkinService,
		rsvpService, mail, cfg.Server.PublicURL)
	eventHandler := handlers.NewEventHandler(eventRepo)
	checkinHandler := handlers.NewCheckinHandler(checkinService)
	qrHandler := handlers.NewQRHandler(tokenService, hub)
	rsvpHandler := handlers.NewRSVPHandler(rsvpService)
	batchHandler := handlers.NewBatchHandler(guestRepo, eventRepo, checkinRepo, store)
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.JWTSecret)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"service": "EXP Guest Backend",
			"version": version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/guests", guestHandler.Routes())
		r.Mount("/events", eventHandler.Routes())
		r.Mount("/checkin", checkinHandler.Routes())
		r.Mount("/qr", qrHandler.Routes())
		r.Mount("/rsvp", rsvpHandler.Routes())
		r.Mount("/batch", batchHandler.Routes())
		r.Mount("/auth", authHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Expired operator sessions are reaped in the background.
	go reapSessions(ctx, userRepo)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.Server.Port, "version", version)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newMailer picks the delivery backend from configuration: dev mode logs
// messages, a MailerSend key selects the API client, otherwise SMTP.
func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}

func reapSessions(ctx context.Context, users postgres.UserRepo) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := users.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Error("Session reaper failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Expired sessions removed", "count", n)
			}
		}
	}
}
