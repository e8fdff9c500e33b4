package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/config"
	"github.com/azvaska/flight-gorilla-sub000/internal/database"
	"github.com/azvaska/flight-gorilla-sub000/internal/handlers"
	"github.com/azvaska/flight-gorilla-sub000/internal/middleware"
	"github.com/azvaska/flight-gorilla-sub000/internal/services"
	"github.com/azvaska/flight-gorilla-sub000/pkg/cache"
	"github.com/azvaska/flight-gorilla-sub000/pkg/events"
	"github.com/azvaska/flight-gorilla-sub000/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting flight booking core")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	healthDeps := map[string]handlers.Pinger{"database": db}

	// Search cache is optional; searches fall back to the database when it is off
	var searchCache cache.Cache = cache.NoopCache{}
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "flight-search:",
		})
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, search cache disabled")
		} else {
			searchCache = redisCache
			healthDeps["redis"] = handlers.PingFunc(redisCache.Ping)
			logger.WithField("addr", cfg.Redis.Addr).Info("✓ Search cache enabled")
		}
	}
	defer searchCache.Close()

	publisher := newPublisher(cfg.Events, logger)
	defer publisher.Close()

	// Repositories
	flightRepo := database.NewFlightRepository(db.DB)
	sessionRepo := database.NewSeatSessionRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	capacityRepo := database.NewCapacityRepository()

	// Services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpiry)
	searchService := services.NewSearchService(flightRepo, bookingRepo, searchCache, cfg.Search, logger)
	capacityService := services.NewCapacityService(capacityRepo, logger)
	sessionService := services.NewSeatSessionService(db.DB, sessionRepo, flightRepo, publisher, cfg.Session, logger)
	bookingService := services.NewBookingService(
		db.DB,
		bookingRepo,
		sessionRepo,
		flightRepo,
		capacityService,
		publisher,
		cfg.Booking,
		logger,
	)
	logger.Info("Services initialized")

	cronService := services.NewCronService(sessionService, cfg.Session.SweepSchedule, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.WithField("schedule", cfg.Session.SweepSchedule).Info("✓ Cron service started - expired seat sessions are swept")

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register request validators: %v", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	routes := &handlers.Routes{
		Search:       handlers.NewSearchHandler(searchService, logger),
		SeatSessions: handlers.NewSeatSessionHandler(sessionService, logger),
		Bookings:     handlers.NewBookingHandler(bookingService, logger),
		Health:       handlers.NewHealthHandler(version, healthDeps).WithJobs(cronService),
		Admin:        handlers.NewAdminHandler(cronService, logger),
	}
	routes.Register(router,
		middleware.AuthMiddleware(jwtService, logger),
		middleware.OptionalAuth(jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// newPublisher connects to the configured broker. A broker that cannot be
// reached disables events instead of blocking startup.
func newPublisher(cfg config.EventsConfig, logger *logrus.Logger) events.Publisher {
	switch cfg.Broker {
	case "kafka":
		p, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			RetryMax: 3,
			Timeout:  5 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable, booking events disabled")
			return events.NoopPublisher{}
		}
		logger.WithField("topic", cfg.KafkaTopic).Info("✓ Publishing booking events to Kafka")
		return p
	case "rabbitmq":
		p, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, booking events disabled")
			return events.NoopPublisher{}
		}
		logger.WithField("exchange", cfg.RabbitExchange).Info("✓ Publishing booking events to RabbitMQ")
		return p
	default:
		logger.Info("Booking events disabled")
		return events.NoopPublisher{}
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
