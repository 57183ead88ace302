package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/astravedam-backend/internal/config"
	"github.com/AnshRaj112/astravedam-backend/internal/database"
	"github.com/AnshRaj112/astravedam-backend/internal/geocode"
	"github.com/AnshRaj112/astravedam-backend/internal/handlers"
	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
	"github.com/AnshRaj112/astravedam-backend/internal/routes"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"github.com/AnshRaj112/astravedam-backend/pkg/clientip"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Msg("No .env file found")
	}
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// MongoDB is required; there is nothing to serve without it.
	dbName := cfg.MongoDatabase
	if dbName == "" {
		dbName = database.DatabaseName(cfg.MongoURI)
	}
	mongo, err := database.Connect(ctx, cfg.MongoURI, dbName)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := mongo.Disconnect(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("MongoDB disconnect failed")
		}
	}()
	logging.Info().Str("database", dbName).Msg("Connected to MongoDB")

	charts := database.NewChartRepository(mongo.DB)
	accounts := database.NewAccountRepository(mongo.DB)
	if err := charts.EnsureIndexes(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to ensure chart indexes")
	}
	if err := accounts.EnsureIndexes(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to ensure account indexes")
	}

	// Redis backs OAuth state and the development rate limiter. Both are
	// disabled when it is unreachable.
	var rdb *redis.Client
	if rdb, err = database.ConnectRedis(ctx, cfg.RedisURI); err != nil {
		logging.Warn().Err(err).Msg("Redis unavailable; Google sign-in and request throttling disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	if cfg.GeoapifyKey == "" {
		logging.Warn().Msg("GEOAPIFY_KEY not set; place names cannot be resolved")
	}
	geocoder := geocode.NewBreakerGeocoder("geoapify", geocode.NewGeoapifyClient(cfg.GeoapifyKey, cfg.GeoapifyURL))

	authCfg := cfg.AuthConfig()
	tokens, err := services.NewTokenManager(authCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid auth configuration")
	}

	chartCfg := services.ChartServiceConfig{
		Charts:   charts,
		Accounts: accounts,
		Geocoder: geocoder,
	}
	if cfg.MongoTransactions {
		chartCfg.Transactor = mongo
	}
	chartService := services.NewChartService(chartCfg)
	accountService := services.NewAccountService(accounts)

	authHandlerCfg := handlers.AuthHandlerConfig{
		Auth:     authCfg,
		Accounts: accountService,
		Tokens:   tokens,
		Charts:   chartService,
	}
	switch {
	case !cfg.GoogleEnabled():
		logging.Warn().Msg("Google OAuth credentials not set; Google sign-in disabled")
	case rdb == nil:
		logging.Warn().Msg("Google sign-in disabled without Redis")
	default:
		provider, err := services.NewGoogleProvider(ctx, authCfg)
		if err != nil {
			logging.Error().Err(err).Msg("Google discovery failed; Google sign-in disabled")
			break
		}
		authHandlerCfg.Provider = provider
		authHandlerCfg.States = services.NewOAuthStateStore(rdb, authCfg.StateTTL)
	}

	resolveIP := clientip.Resolver(cfg.TrustProxy)
	opts := routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		AllowedHost:    cfg.AllowedHost,
	}
	if !opts.Production && rdb != nil {
		opts.RateLimiter = middleware.NewRedisRateLimiter(rdb, resolveIP)
	}
	router := routes.NewRouter(opts, routes.Deps{
		Charts:        handlers.NewChartHandler(chartService),
		Auth:          handlers.NewAuthHandler(authHandlerCfg),
		Health:        handlers.NewHealthHandler(mongo, cfg.Version, cfg.Environment),
		Authenticator: middleware.NewAuthenticator(tokens, accounts),
		ClientIP:      resolveIP,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Bool("production", opts.Production).
			Msg("Astravedam backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		logging.Error().Err(err).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
