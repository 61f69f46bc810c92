package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/pigpay/backend/docs"
	"github.com/pigpay/backend/internal/audit"
	"github.com/pigpay/backend/internal/config"
	"github.com/pigpay/backend/internal/database"
	"github.com/pigpay/backend/internal/events"
	"github.com/pigpay/backend/internal/handlers"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/metrics"
	mW "github.com/pigpay/backend/internal/middleware"
	"github.com/pigpay/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title PigPay API
// @version 1.0
// @description Peer-to-peer transfers and marketplace purchases over a single internal currency
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	configErr := viper.ReadInConfig()

	serverCfg := config.LoadServerConfig()
	logging.Configure(serverCfg.LogLevel, serverCfg.LogFormat)
	log := logging.For("server")
	if configErr != nil {
		log.WithError(configErr).Info("Config file not found, using environment and defaults")
	}

	if err := serverCfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid server configuration")
	}
	if viper.GetString("jwt.secret_key") == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	ledgerCfg := config.LoadLedgerConfig()
	engineCfg, err := ledgerCfg.EngineConfig()
	if err != nil {
		log.WithError(err).Fatal("Invalid ledger configuration")
	}

	eventsCfg := config.LoadEventsConfig()
	if err := eventsCfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid events configuration")
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "PigPay API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + serverCfg.Port
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize storage
	db := database.InitDatabase()
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db, engineCfg.Fees.OperatorUsername); err != nil {
		cancelSchema()
		log.WithError(err).Fatal("Failed to apply database schema")
	}
	cancelSchema()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, closePublisher := newPublisher(eventsCfg, redisClient, log)
	defer closePublisher()

	auditLogger := audit.NewAuditLogger()
	engine, err := ledger.NewEngine(ledger.NewPostgresStore(db), engineCfg,
		auditLogger,
		metrics.LedgerObserver{},
		events.NewObserver(publisher, 5*time.Second),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize ledger engine")
	}

	authService := services.NewAuthService(db, redisClient, engine, auditLogger, ledgerCfg.InitialBalance)
	transferService := services.NewTransferService(engine)
	accountService := services.NewAccountService(engine)
	marketService := services.NewMarketService(engine)

	authenticator := mW.NewAuthenticator(redisClient)
	limiter := mW.NewRateLimiter(serverCfg.RateLimitRPS, serverCfg.RateLimitBurst)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(serverCfg.RequestTimeout))
	r.Use(metrics.InstrumentHandler)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   serverCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.With(limiter.Handler).Post("/auth/register", authService.Register)
		r.With(limiter.Handler).Post("/auth/login", authService.Login)
		r.Get("/market", marketService.ListItems)
		r.Get("/market/{id}", marketService.GetItem)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(authenticator.AuthMiddleware)

			r.Post("/auth/logout", authService.Logout)
			r.Get("/me", accountService.Me)
			r.Get("/me/history", accountService.History)
			r.Get("/accounts/{username}/exists", accountService.RecipientExists)

			r.Group(func(r chi.Router) {
				r.Use(limiter.Handler)

				r.Post("/transfers", transferService.CreateTransfer)
				r.Post("/market", marketService.CreateListing)
				r.Post("/market/{id}/purchase", marketService.Purchase)

				// QR endpoints
				if redisClient != nil {
					qrHandler := handlers.NewQRHandler(services.NewQRService(redisClient, serverCfg.QRTTL), engine)
					r.Post("/qr/receive", qrHandler.GenerateQR)
					r.Post("/qr/pay", qrHandler.PayQR)
				} else {
					log.Warn("QR endpoints disabled: Redis unavailable")
				}
			})
		})
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + serverCfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: serverCfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stopCleanup)

	log.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}

// newPublisher picks the event sink. A sink that cannot be reached falls
// back to discarding events so the ledger keeps serving.
func newPublisher(cfg *config.EventsConfig, redisClient *redis.Client, log *logrus.Entry) (events.Publisher, func()) {
	switch cfg.Sink {
	case "redis":
		if redisClient == nil {
			log.Warn("Event sink redis unavailable, ledger events will be dropped")
			return events.Nop(), func() {}
		}
		return events.NewRedisPublisher(redisClient, cfg.RedisList), func() {}
	case "nats":
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.WithError(err).Warn("Event sink nats unavailable, ledger events will be dropped")
			return events.Nop(), func() {}
		}
		return events.NewNATSPublisher(nc, cfg.NATSSubject), func() { drain(nc, log) }
	default:
		return events.Nop(), func() {}
	}
}

func drain(nc *nats.Conn, log *logrus.Entry) {
	if err := nc.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
	}
}
