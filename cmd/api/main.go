package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/api/handlers"
	"github.com/competitive-radar/backend/internal/api/render"
	redisCache "github.com/competitive-radar/backend/internal/cache/redis"
	"github.com/competitive-radar/backend/internal/chat"
	"github.com/competitive-radar/backend/internal/engagement"
	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/middleware/ratelimit"
	"github.com/competitive-radar/backend/internal/middleware/security"
	"github.com/competitive-radar/backend/internal/middleware/validation"
	"github.com/competitive-radar/backend/internal/onboarding"
	"github.com/competitive-radar/backend/internal/pipeline"
	"github.com/competitive-radar/backend/internal/source"
	"github.com/competitive-radar/backend/internal/storage/file"
	"github.com/competitive-radar/backend/internal/storage/sqlite"
	"github.com/competitive-radar/backend/pkg/config"
	appLogger "github.com/competitive-radar/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting CompetitiveRadar API Server",
		zap.String("mode", cfg.Pipeline.Mode()),
		zap.String("persona", cfg.Pipeline.Persona),
	)

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	// the assistant endpoints get their own breaker so a tripped pipeline
	// does not take chat and discovery down with it
	pipelineClient := newLLMClient(cfg.LLM, "pipeline")
	assistantClient := newLLMClient(cfg.LLM, "assistant")

	deps := pipeline.Deps{
		Client: pipelineClient,
		Source: source.NewLoader(cfg.Pipeline.InputCandidates()),
		Output: file.NewStore(cfg.Pipeline.OutputPath),
	}

	// History and Cache stay nil interfaces when disabled.
	var history handlers.RunHistory
	var sqliteClient *sqlite.Client
	if cfg.SQLite.Enabled {
		sqliteClient, err = sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
		}
		defer sqliteClient.Close()

		if err := sqliteClient.InitSchema(); err != nil {
			appLogger.Fatal("Failed to initialize schema", zap.Error(err))
		}
		deps.History = sqliteClient
		history = sqliteClient
	}

	var cacheClient *redisCache.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redisCache.NewClient(
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without digest cache", zap.Error(err))
		} else {
			defer cacheClient.Close()
			deps.Cache = cacheClient

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := cacheClient.ResetOnModeChange(ctx, cfg.Pipeline.Mode()); err != nil {
				appLogger.Warn("Failed to check cached digest mode", zap.Error(err))
			}
			cancel()
		}
	}

	orchestrator := pipeline.New(pipeline.Config{
		Offline: cfg.Pipeline.Offline,
		Persona: cfg.Pipeline.Persona,
	}, deps)

	renderer := render.New()
	digestHandler := handlers.NewDigestHandler(orchestrator, history, renderer, engagement.Default())
	onboardingHandler := handlers.NewOnboardingHandler(onboarding.NewDiscoverer(assistantClient), renderer)
	chatHandler := handlers.NewChatHandler(chat.NewResponder(assistantClient))
	wsHandler := handlers.NewWebSocketHandler(orchestrator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.Named("validation"),
	}))
	if cfg.RateLimit.Enabled {
		limiterConfig := ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Logger:               appLogger.Named("ratelimit"),
		}
		if cacheClient != nil {
			limiterConfig.Storage = cacheClient.LimiterStorage()
		}
		app.Use(ratelimit.New(limiterConfig))
	}

	app.Get("/", digestHandler.Landing)
	app.Get("/digest", digestHandler.DigestPage)

	api := app.Group("/api")
	api.Get("/digest", digestHandler.GetDigest)
	api.Post("/run", digestHandler.RunDigest)
	api.Get("/runs", digestHandler.ListRuns)
	api.Get("/runs/:id", digestHandler.GetRun)
	api.Get("/onboarding/startup-types", onboardingHandler.StartupTypes)
	api.Post("/competitors/discover", onboardingHandler.DiscoverCompetitors)
	api.Post("/digest/personalized", onboardingHandler.PersonalizedDigest)
	api.Post("/chat", chatHandler.HandleChat)

	app.Get("/ws/run", handlers.RequireUpgrade, websocket.New(wsHandler.HandleConnection))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status": "healthy",
			"mode":   orchestrator.Mode(),
			"time":   time.Now().Unix(),
		}
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if sqliteClient != nil {
			status["sqlite"] = pingStatus(sqliteClient.Ping(ctx))
		}
		if cacheClient != nil {
			status["redis"] = pingStatus(cacheClient.Ping(ctx))
		}
		return c.JSON(status)
	})

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, metrics.MetricsHandler())
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func newLLMClient(cfg config.LLMConfig, name string) *llm.Client {
	return llm.NewClient(llm.Config{
		Name:         name,
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		Timeout:      cfg.Timeout(),
		MaxAttempts:  cfg.MaxAttempts,
		BreakerTrips: cfg.BreakerTrips,
	})
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}

func pingStatus(err error) string {
	if err != nil {
		return "unavailable"
	}
	return "ok"
}
