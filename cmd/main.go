package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/config"
	"github.com/franciscosanchezn/ia-platform-api/internal/database"
	"github.com/franciscosanchezn/ia-platform-api/internal/observability"
	"github.com/franciscosanchezn/ia-platform-api/internal/ratelimit"
	"github.com/franciscosanchezn/ia-platform-api/internal/server"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	serviceName    = "ia-platform-api"
	serviceVersion = "1.0.0"

	tokenPurgeInterval = time.Hour
)

// @title IA Platform API
// @version 1.0
// @description Authentication, model catalog and API client service of the IA Platform
// @host localhost:3001
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	logger := setUpLogger()

	// Load configuration
	configuration := loadConfig()
	logger.SetLevel(logLevel(configuration))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db := setupDatabase(configuration)
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	limiter, closeLimiter := setupRateLimiter(ctx, configuration)
	defer closeLimiter()

	var tracerProvider trace.TracerProvider
	if configuration.OTLPEndpoint != "" {
		tp, err := observability.InitTracer(ctx, serviceName, serviceVersion, configuration.OTLPEndpoint)
		if err != nil {
			log.WithError(err).Warn("Tracing disabled, exporter could not be created")
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := server.New(server.Dependencies{
		Config:  configuration,
		DB:      db,
		Log:     logger,
		Limiter: limiter,
		Prom:    observability.NewProm(registry),
		Tracer:  tracerProvider,
		Version: serviceVersion,
	})

	go purgeExpiredTokens(ctx, app)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configuration.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
		return
	}
	log.Info("Server stopped")
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() *log.Logger {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development")))
	return log.StandardLogger()
}

// logLevel honours an explicit LOG_LEVEL, otherwise falls back to the environment default
func logLevel(conf *config.Config) log.Level {
	if config.GetEnvWithDefault("LOG_LEVEL", "") != "" {
		if level, err := log.ParseLevel(conf.LogLevel); err == nil {
			return level
		}
		log.Warnf("Unknown LOG_LEVEL %q, using the environment default", conf.LogLevel)
	}
	return config.LevelForEnvironment(conf.Environment)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase connects, migrates and optionally seeds the database
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(database.FromAppConfig(conf))
	checkPanicErr(err)

	checkPanicErr(database.Migrate(db))

	if conf.SeedDemo {
		checkPanicErr(database.SeedDemoData(db))
	}
	return db
}

// setupRateLimiter shares counters through Redis when REDIS_ADDR is set, otherwise counts in memory.
// The returned func releases the limiter and its Redis client.
func setupRateLimiter(ctx context.Context, conf *config.Config) (ratelimit.Limiter, func()) {
	if conf.RedisAddr == "" {
		log.Info("Using in-memory rate limiter")
		limiter := ratelimit.NewMemoryLimiter(conf.RateLimitMax, conf.RateLimitWindow)
		return limiter, func() { _ = limiter.Close() }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The limiter fails open, so a late Redis only costs limiting until it comes up
		log.WithError(err).Warn("Redis is not reachable yet")
	}

	log.WithField("redis_addr", conf.RedisAddr).Info("Using Redis rate limiter")
	return ratelimit.NewRedisLimiter(client, "", conf.RateLimitMax, conf.RateLimitWindow), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

// purgeExpiredTokens deletes expired client-credentials tokens until ctx ends
func purgeExpiredTokens(ctx context.Context, app *server.App) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := app.OAuth.TokenStore().PurgeExpired(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired tokens")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Debug("Purged expired tokens")
			}
		}
	}
}
