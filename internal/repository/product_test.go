package repository

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestEscapeLikePattern проверяет экранирование спецсимволов LIKE.
func TestEscapeLikePattern(t *testing.T) {
	cases := map[string]string{
		"tent":       "tent",
		"50%":        `50\%`,
		"snake_case": `snake\_case`,
		`a\b`:        `a\\b`,
	}

	for input, expected := range cases {
		if got := escapeLikePattern(input); got != expected {
			t.Fatalf("escapeLikePattern(%q) = %q, expected %q", input, got, expected)
		}
	}
}

// TestNormalizeKeywords проверяет нижний регистр и удаление дубликатов.
func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Tent ", "tent", "", "Camping", "CAMPING", "shelter"})
	expected := []string{"tent", "camping", "shelter"}

	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

// TestBuildProductWhere проверяет сборку фильтра каталога.
func TestBuildProductWhere(t *testing.T) {
	where, args := buildProductWhere(ProductFilter{})
	if where != " WHERE is_active" || len(args) != 0 {
		t.Fatalf("unexpected default filter: %q %v", where, args)
	}

	where, args = buildProductWhere(ProductFilter{Category: "shelter", IncludeInactive: true})
	if where != " WHERE category = $1" || len(args) != 1 || args[0] != "shelter" {
		t.Fatalf("unexpected category filter: %q %v", where, args)
	}

	where, _ = buildProductWhere(ProductFilter{IncludeInactive: true})
	if where != "" {
		t.Fatalf("expected empty filter, got %q", where)
	}
}

// TestValidateProductInput проверяет обязательные поля и диапазоны.
func TestValidateProductInput(t *testing.T) {
	valid := ProductInput{
		ReferenceCode: "TENT-2P",
		Name:          "Two person tent",
		Category:      "shelter",
		Price:         decimal.RequireFromString("129.99"),
		Discount:      decimal.RequireFromString("10"),
		Stock:         4,
	}
	if err := validateProductInput(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	invalid := valid
	invalid.Price = decimal.RequireFromString("-1")
	if err := validateProductInput(invalid); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for negative price, got %v", err)
	}

	invalid = valid
	invalid.Discount = decimal.RequireFromString("120")
	if err := validateProductInput(invalid); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for discount, got %v", err)
	}

	invalid = valid
	invalid.ReferenceCode = " "
	if err := validateProductInput(invalid); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for empty code, got %v", err)
	}
}

// TestBuildAIRequestWhere проверяет нумерацию параметров фильтра журнала.
func TestBuildAIRequestWhere(t *testing.T) {
	success := true
	source := "keyword"

	where, args := buildAIRequestWhere(AIRequestFilter{Success: &success, Source: &source})
	if where != " WHERE success = $1 AND source = $2" {
		t.Fatalf("unexpected where: %q", where)
	}
	if len(args) != 2 || args[0] != true || args[1] != "keyword" {
		t.Fatalf("unexpected args: %v", args)
	}
}
