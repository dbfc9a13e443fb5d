package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"example.com/shopping-planner/backend/internal/ai"
	"example.com/shopping-planner/backend/internal/auth"
	"example.com/shopping-planner/backend/internal/cache"
	"example.com/shopping-planner/backend/internal/config"
	"example.com/shopping-planner/backend/internal/events"
	"example.com/shopping-planner/backend/internal/handlers"
	"example.com/shopping-planner/backend/internal/notifications"
	"example.com/shopping-planner/backend/internal/repository"
	"example.com/shopping-planner/backend/internal/shopping"
)

// Deps содержит внешние подключения сервера. Redis и Publisher опциональны.
type Deps struct {
	DB        *pgxpool.Pool
	Redis     redis.UniversalClient
	Publisher events.Publisher
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Deps) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	userRepo := repository.NewUserRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.DB)
	aiRepo := repository.NewAIRepository(deps.DB)
	notificationHub := notifications.NewHub()
	admins := handlers.NewAdminSet(cfg.Admin.Emails)

	var catalog shopping.CatalogLookup = productRepo
	var invalidator handlers.CatalogInvalidator
	if deps.Redis != nil {
		catalogCache := cache.NewCatalogCache(productRepo, deps.Redis, cfg.Cache.TTL, logger)
		catalog = catalogCache
		invalidator = catalogCache
	}

	generator := shopping.NewGenerator(newIntentResolver(cfg, logger), catalog, shopping.Options{
		MatchConcurrency: cfg.Shopping.MatchConcurrency,
		MaxItems:         cfg.Shopping.MaxItems,
	}, logger)

	authHandler := handlers.NewAuthHandler(userRepo, tokenManager, admins)
	shoppingHandler := handlers.NewShoppingHandler(generator, aiRepo, notificationHub, deps.Publisher, cfg.Shopping.MaxPromptLength, logger)
	productHandler := handlers.NewProductHandler(productRepo, invalidator, notificationHub, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationHub)
	adminHandler := handlers.NewAdminHandler(aiRepo)

	registerRoutes(e, routes{
		health:           handlers.Health(productRepo),
		auth:             authHandler,
		shopping:         shoppingHandler,
		products:         productHandler,
		notifications:    notificationHandler,
		admin:            adminHandler,
		authMiddleware:   auth.JWTMiddleware(tokenManager),
		streamMiddleware: auth.StreamMiddleware(tokenManager),
		adminMiddleware:  handlers.AdminMiddleware(userRepo, admins),
		authRateLimiter:  rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
		aiRateLimiter:    rateLimiter(cfg.AI.RateLimitPerMinute, cfg.AI.RateLimitBurst),
	})

	return e
}

// newIntentResolver выбирает источник списков: AI с запасными ключевыми списками
// либо только ключевые списки, если ключ API не задан.
func newIntentResolver(cfg config.Config, logger *slog.Logger) shopping.IntentResolver {
	keyword := ai.NewKeywordResolver()
	if cfg.AI.APIKey == "" {
		logger.Warn("AI_API_KEY is empty, keyword shopping lists only")
		return keyword
	}

	var client ai.Client
	switch cfg.AI.Provider {
	case "gemini":
		client = ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout, cfg.AI.MaxOutputTokens)
	default:
		client = ai.NewGroqClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout, cfg.AI.MaxOutputTokens)
	}

	primary := ai.NewIntentResolver(client, cfg.AI.Provider, cfg.AI.Model, cfg.Shopping.MaxItems, cfg.AI.Currency)
	return ai.NewFallbackResolver(primary, keyword, logger)
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(c.Request().Context(), level, "request completed", attrs...)
			return nil
		},
	})
}

func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60.0),
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
