package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"promptcoach/config"
	"promptcoach/db"
	"promptcoach/internal/history"
	"promptcoach/internal/metrics"
	"promptcoach/routes"
	"promptcoach/services"
	"promptcoach/session"
	"promptcoach/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "./config/config.yml"), "path to the YAML config file")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB using the URI from the configuration
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, database, err := db.ConnectMongoDB(connectCtx, cfg.Database.URI, cfg.Database.Name)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info().Str("db", database.Name()).Msg("connected to MongoDB")

	store := db.NewMongoHistoryStore(database)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create history indexes")
	}

	var (
		broker history.Broker         = history.NewLocalBroker()
		prefs  session.PreferenceStore = session.NewMemoryPreferences()
	)
	if cfg.Redis.Addr != "" {
		rdb, err := history.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using in-process broker")
		} else {
			defer rdb.Close()
			broker, prefs = history.NewRedisBroker(rdb), session.NewRedisPreferences(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	rec := metrics.New()
	gateway, err := services.NewGeminiGateway(ctx, services.GeminiOptions{
		APIKey:  cfg.Gemini.ApiKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	}, rec)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("gemini.apiKey is empty; generation requests will fail")
	}

	roles := services.CatalogFromConfig(cfg.Roles)
	prompts := services.DefaultPrompts(cfg.Tenant.Company)
	scenarios := services.NewScenarioService(gateway, roles, prompts, log)
	coach := services.NewCoachService(gateway, prompts, log,
		services.WithHistory(store),
		services.WithNotifier(broker),
		services.WithMetrics(rec),
	)

	sessions := session.NewManager(session.Deps{
		Roles:       roles,
		Scenarios:   scenarios,
		Evaluator:   coach,
		Preferences: prefs,
	})

	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(routes.Deps{
		Tenant:         cfg.Tenant.AppID,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Tokens:         utils.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiry)*time.Minute),
		Roles:          roles,
		Scenarios:      scenarios,
		Coach:          coach,
		History:        store,
		Broker:         broker,
		Sessions:       sessions,
		Metrics:        rec,
		Log:            log,
	})

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("app", cfg.Tenant.AppID).Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
