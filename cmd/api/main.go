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
	"github.com/redis/go-redis/v9"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/handlers"
	mw "github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/middleware"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/mailer"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/payments"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/repository"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/config"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/database"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
	pkgmw "github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/middleware"
)

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

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(redisClient)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)

	// Outbound services
	mailSvc := buildMailer(cfg.Email)
	paySvc := payments.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.Currency)

	// Domain services
	authSvc := service.NewAuthService(userRepo, otpRepo, mailSvc, cfg.Auth)
	catalogSvc := service.NewCatalogService(productRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo, orderRepo, userRepo, paySvc, mailSvc)
	orderSvc := service.NewOrderService(orderRepo, productRepo)

	authLimiter := mw.NewRateLimiter(rateLimitRepo, mw.RateLimitConfig{
		Requests: cfg.Auth.RateLimitRequests,
		Window:   cfg.Auth.RateLimitWindow,
	})

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc, cfg.Auth.JWTSecret, authLimiter)
	productHandler := handlers.NewProductHandler(catalogSvc, cfg.Auth.JWTSecret)
	cartHandler := handlers.NewCartHandler(cartSvc, cfg.Auth.JWTSecret)
	orderHandler := handlers.NewOrderHandler(orderSvc, cfg.Auth.JWTSecret)
	uploadHandler := handlers.NewUploadHandler(cfg.Upload, cfg.Auth.JWTSecret)

	// Router
	r := chi.NewRouter()
	r.Use(pkgmw.RequestID)
	r.Use(pkgmw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(pkgmw.Health)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/products", productHandler.Routes())
		r.Mount("/cart", cartHandler.Routes())
		r.Mount("/orders", orderHandler.Routes())
		r.Mount("/upload", uploadHandler.Routes())
	})

	// Uploaded images are served straight from disk.
	fileServer := http.StripPrefix(cfg.Upload.PublicBase, http.FileServer(http.Dir(cfg.Upload.Dir)))
	r.Get(cfg.Upload.PublicBase+"/*", func(w http.ResponseWriter, req *http.Request) {
		fileServer.ServeHTTP(w, req)
	})

	// Expired rate limit rows pile up without an occasional sweep.
	go cleanupRateLimits(ctx, rateLimitRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}

func buildMailer(cfg config.EmailConfig) mailer.Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer, emails are logged only")
		return mailer.NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend for outbound email")
		return mailer.NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		logger.Info("Using SMTP for outbound email", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}

func cleanupRateLimits(ctx context.Context, repo repository.RateLimitRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := repo.CleanupExpired(ctx); err != nil {
				logger.Error("rate limit cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info("rate limit rows cleaned", "count", n)
			}
		}
	}
}
