package main

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/assistant"
	"github.com/umkm-labs/warung/consumer"
	"github.com/umkm-labs/warung/dashboard"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/forecast"
	"github.com/umkm-labs/warung/inventory"
	"github.com/umkm-labs/warung/store"
)

// server holds the wired services behind the HTTP engine.
type server struct {
	cfg      fields.Config
	db       *store.DB
	store    *store.Store
	logger   *logrus.Logger
	auth     *gateway.JWTAuth
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	memory   assistant.Memory

	consumer  consumer.Service
	inventory inventory.Service
	forecast  *forecast.Service
	dashboard dashboard.Service
	chat      assistant.Service
}

// newServer wires every service on top of an opened, migrated database.
func newServer(ctx context.Context, cfg fields.Config, db *store.DB, logger *logrus.Logger) *server {
	s := &server{
		cfg:      cfg,
		db:       db,
		store:    store.New(db),
		logger:   logger,
		registry: prometheus.DefaultRegisterer,
		gatherer: prometheus.DefaultGatherer,
	}

	s.auth = gateway.NewJWTAuth(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt_secret not set, tokens will not survive a restart")
	}

	s.consumer = consumer.Service{Store: s.store, Logger: logger, Auth: s.auth}
	s.inventory = inventory.Service{Store: s.store, Logger: logger, Metrics: inventory.NewMetrics(s.registry)}
	s.forecast = &forecast.Service{
		Store:       s.store,
		Forecaster:  forecast.NewForecaster(),
		Logger:      logger,
		HorizonDays: cfg.ForecastHorizonDays,
	}
	s.dashboard = dashboard.Service{Store: s.store, Logger: logger, LowStockThreshold: cfg.LowStockThreshold}
	s.chat = assistant.Service{Logger: logger}

	if cfg.GroqKey == "" {
		logger.Warn("groq_key not set, chat assistant disabled")
		return s
	}
	s.memory = s.chatMemory(ctx)
	llm := assistant.NewOpenAIClient(cfg.LLMBaseURL, cfg.GroqKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens,
		time.Duration(cfg.LLMTimeoutSec)*time.Second)
	s.chat.Agent = &assistant.Agent{
		LLM:     llm,
		Tools:   assistant.NewToolbox(s.store, s.forecast),
		Memory:  s.memory,
		Logger:  logger,
		Metrics: assistant.NewMetrics(s.registry),
	}
	return s
}

// chatMemory prefers redis and falls back to process memory when redis is
// not configured or does not answer.
func (s *server) chatMemory(ctx context.Context) assistant.Memory {
	if s.cfg.RedisURL == "" {
		return assistant.NewLocalMemory(assistant.MemorySize)
	}
	mem, err := assistant.NewRedisMemory(s.cfg.RedisURL)
	if err != nil {
		s.logger.WithError(err).Warn("invalid redis_url, using in-process chat memory")
		return assistant.NewLocalMemory(assistant.MemorySize)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := mem.Ping(pingCtx); err != nil {
		s.logger.WithError(err).Warn("redis unavailable, using in-process chat memory")
		_ = mem.Close()
		return assistant.NewLocalMemory(assistant.MemorySize)
	}
	s.logger.Info("chat memory backed by redis")
	return mem
}

func (s *server) close() {
	if closer, ok := s.memory.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.WithError(err).Warn("close chat memory")
		}
	}
}

// GetMainEngine mounts every route on a new fiber app.
func (s *server) GetMainEngine() *fiber.App {
	route := fiber.New(fiber.Config{
		AppName:               "warung",
		DisableStartupMessage: true,
		ErrorHandler:          gateway.ErrorHandler(s.logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          2 * time.Minute,
	})
	route.Use(recover.New(recover.Config{EnableStackTrace: s.cfg.IsDebug}))
	route.Use(gateway.RequestID())
	route.Use(gateway.Cors(s.cfg.DevKey))
	route.Use(gateway.Instrumentation(s.registry))
	route.Use(gateway.RequestLogger(s.logger, logSampling))

	route.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "warung API", "version": Version})
	})
	route.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	route.Get("/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			return apperr.Wrap(err, apperr.ErrUnavailable, "database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	metrics := adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	if s.cfg.AdminKey != "" {
		route.Get("/metrics", gateway.RequireAdmin(gateway.AdminAuthConfig{Key: s.cfg.AdminKey}), metrics)
	} else {
		route.Get("/metrics", metrics)
	}

	api := route.Group("/api")
	authMiddleware := s.auth.AuthMiddleware()
	s.consumer.Routes(api.Group("/auth"), authMiddleware)
	s.inventory.LegacyRoutes(route, authMiddleware)

	// everything registered below requires a bearer token
	secured := api.Group("", authMiddleware)
	s.inventory.Routes(secured)
	s.forecast.Routes(secured)
	s.dashboard.Routes(secured.Group("/dashboard"))
	s.chat.Routes(secured.Group("/chat"))
	return route
}
