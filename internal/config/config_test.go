package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestParseCSVEnv проверяет разбор списка email из ENV.
func TestParseCSVEnv(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Admin@example.com, ,USER@Example.com ")

	got := parseCSVEnv("ADMIN_EMAILS")
	want := []string{"admin@example.com", "user@example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseCSVEnvMissing проверяет поведение при отсутствии переменной.
func TestParseCSVEnvMissing(t *testing.T) {
	got := parseCSVEnv("MISSING_ENV")
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

// TestParseListEnvKeepsCase проверяет, что адреса брокеров не приводятся к нижнему регистру.
func TestParseListEnvKeepsCase(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "Kafka-1:9092, kafka-2:9092,")

	got := parseListEnv("KAFKA_BROKERS")
	want := []string{"Kafka-1:9092", "kafka-2:9092"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseNonNegativeIntEnv проверяет, что ноль допустим, а отрицательные значения нет.
func TestParseNonNegativeIntEnv(t *testing.T) {
	t.Setenv("REDIS_DB", "0")
	if got, err := parseNonNegativeIntEnv("REDIS_DB", 3); err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (%v)", got, err)
	}

	t.Setenv("REDIS_DB", "-1")
	if _, err := parseNonNegativeIntEnv("REDIS_DB", 0); err == nil {
		t.Fatal("expected error for negative value")
	}

	t.Setenv("SHOPPING_MAX_ITEMS", "0")
	if _, err := parseIntEnv("SHOPPING_MAX_ITEMS", 30); err == nil {
		t.Fatal("expected error for zero value")
	}
}

// TestLoadDefaults проверяет значения по умолчанию для генерации и опциональных сервисов.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Shopping.MaxPromptLength != 500 || cfg.Shopping.MatchConcurrency != 8 || cfg.Shopping.MaxItems != 30 {
		t.Fatalf("unexpected shopping defaults: %+v", cfg.Shopping)
	}
	if cfg.Cache.Enabled() || cfg.Events.Enabled() {
		t.Fatalf("expected cache and events to be disabled: %+v %+v", cfg.Cache, cfg.Events)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %v", cfg.Cache.TTL)
	}
	if cfg.AI.Provider != "groq" || cfg.AI.Currency != "USD" {
		t.Fatalf("unexpected ai defaults: %+v", cfg.AI)
	}
}

// TestLoadRequiresSecret проверяет обязательность JWT_SECRET.
func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

// TestLoadRejectsUnknownProvider проверяет список поддерживаемых AI-провайдеров.
func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AI_PROVIDER", "openai")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// TestLoadReportsAllInvalidVariables проверяет, что ошибки всех переменных возвращаются вместе.
func TestLoadReportsAllInvalidVariables(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "http")
	t.Setenv("CATALOG_CACHE_TTL", "-1s")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid variables")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "CATALOG_CACHE_TTL") {
		t.Fatalf("expected both variables in error, got %v", err)
	}
}
