package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Admin    AdminConfig
	Cache    CacheConfig
	Events   EventsConfig
	Shopping ShoppingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Currency           string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
}

type AdminConfig struct {
	Emails []string
}

// CacheConfig: пустой Addr отключает кеш каталога.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// EventsConfig: пустой список брокеров отключает публикацию в Kafka.
type EventsConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type ShoppingConfig struct {
	MaxPromptLength  int
	MatchConcurrency int
	MaxItems         int
}

// Load загружает конфигурацию приложения из окружения и .env.
// Ошибки всех переменных собираются и возвращаются вместе.
func Load() (Config, error) {
	if err := loadEnv(); err != nil {
		return Config{}, err
	}

	env := &envReader{}
	cfg := Config{
		Env:    getEnv("APP_ENV", "local"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         env.positiveInt("SERVER_PORT", 8080),
			ReadTimeout:  env.duration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: loadDatabase(env),
		Auth:     AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTIssuer:          getEnv("JWT_ISSUER", "shopping-planner"),
			AccessTokenTTL:     env.duration("JWT_ACCESS_TTL", time.Hour),
			RateLimitPerMinute: env.positiveInt("AUTH_RATE_LIMIT_PER_MINUTE", 60),
			RateLimitBurst:     env.positiveInt("AUTH_RATE_LIMIT_BURST", 10),
		},
		AI:    loadAI(env),
		Admin: AdminConfig{Emails: parseCSVEnv("ADMIN_EMAILS")},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       env.nonNegativeInt("REDIS_DB", 0),
			TTL:      env.duration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Events: EventsConfig{
			Brokers:      parseListEnv("KAFKA_BROKERS"),
			Topic:        getEnv("KAFKA_TOPIC", "shopping.list.generated"),
			WriteTimeout: env.duration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		},
		Shopping: ShoppingConfig{
			MaxPromptLength:  env.positiveInt("SHOPPING_MAX_PROMPT_LENGTH", 500),
			MatchConcurrency: env.positiveInt("SHOPPING_MATCH_CONCURRENCY", 8),
			MaxItems:         env.positiveInt("SHOPPING_MAX_ITEMS", 30),
		},
	}

	if err := env.Err(); err != nil {
		return cfg, err
	}

	return cfg, cfg.validate()
}

func loadDatabase(env *envReader) DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            env.positiveInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "shopping"),
		Password:        getEnv("DB_PASSWORD", "shopping"),
		Name:            getEnv("DB_NAME", "shopping_planner"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    env.positiveInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    env.positiveInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxIdleTime: env.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

// providerDefaults хранит адрес API и модель по умолчанию для провайдера.
var providerDefaults = map[string]struct{ baseURL, model string }{
	"groq":   {baseURL: "https://api.groq.com/openai/v1", model: "llama-3.1-8b-instant"},
	"gemini": {baseURL: "https://generativelanguage.googleapis.com/v1beta", model: "gemini-1.5-flash"},
}

func loadAI(env *envReader) AIConfig {
	provider := strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", "groq")))
	defaults := providerDefaults[provider]

	apiKey := getEnv("AI_API_KEY", "")
	if apiKey == "" && provider == "gemini" {
		apiKey = getEnv("GEMINI_API_KEY", "")
	}

	return AIConfig{
		Provider:           provider,
		APIKey:             apiKey,
		BaseURL:            getEnv("AI_BASE_URL", defaults.baseURL),
		Model:              getEnv("AI_MODEL", defaults.model),
		Currency:           strings.ToUpper(getEnv("AI_CURRENCY", "USD")),
		Timeout:            env.duration("AI_TIMEOUT", 20*time.Second),
		RateLimitPerMinute: env.positiveInt("AI_RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     env.positiveInt("AI_RATE_LIMIT_BURST", 10),
		MaxOutputTokens:    env.positiveInt("AI_MAX_OUTPUT_TOKENS", 4096),
	}
}

// envReader читает типизированные переменные и накапливает ошибки разбора.
type envReader struct {
	errs []error
}

func (r *envReader) positiveInt(key string, fallback int) int {
	value, err := parseIntEnv(key, fallback)
	r.record(err)
	return value
}

func (r *envReader) nonNegativeInt(key string, fallback int) int {
	value, err := parseNonNegativeIntEnv(key, fallback)
	r.record(err)
	return value
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, err := parseDurationEnv(key, fallback)
	r.record(err)
	return value
}

func (r *envReader) record(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// Err возвращает все накопленные ошибки или nil.
func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

// Enabled сообщает, настроен ли Redis для кеша каталога.
func (c CacheConfig) Enabled() bool {
	return c.Addr != ""
}

// Enabled сообщает, настроена ли публикация событий в Kafka.
func (c EventsConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c Config) validate() error {
	var errs []error
	check := func(ok bool, message string) {
		if !ok {
			errs = append(errs, errors.New(message))
		}
	}

	check(c.Database.Host != "", "DB_HOST is required")
	check(c.Database.User != "", "DB_USER is required")
	check(c.Database.Name != "", "DB_NAME is required")
	check(c.Database.MaxIdleConns <= c.Database.MaxOpenConns, "DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	check(c.Auth.JWTSecret != "", "JWT_SECRET is required")

	_, known := providerDefaults[c.AI.Provider]
	check(known, "AI_PROVIDER must be groq or gemini")

	check(!c.Events.Enabled() || c.Events.Topic != "", "KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	check(c.Shopping.MaxPromptLength <= 10000, "SHOPPING_MAX_PROMPT_LENGTH cannot exceed 10000")
	check(c.Shopping.MatchConcurrency <= 64, "SHOPPING_MATCH_CONCURRENCY cannot exceed 64")

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	parsed, err := parseNonNegativeIntEnv(key, fallback)
	if err != nil {
		return 0, err
	}

	if parsed == 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseNonNegativeIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

// parseCSVEnv разбирает список email в нижнем регистре.
func parseCSVEnv(key string) []string {
	items := parseListEnv(key)
	for i := range items {
		items[i] = strings.ToLower(items[i])
	}
	return items
}

func parseListEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
