package shopping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DefaultMaxPromptLength = 500
	defaultMaxItems        = 30
)

type Options struct {
	MatchConcurrency int
	MaxItems         int
}

type Generator struct {
	resolver IntentResolver
	catalog  CatalogLookup
	matcher  *Matcher
	maxItems int
	now      func() time.Time
}

// NewGenerator собирает конвейер генерации списка покупок.
func NewGenerator(resolver IntentResolver, catalog CatalogLookup, opts Options, logger *slog.Logger) *Generator {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	return &Generator{
		resolver: resolver,
		catalog:  catalog,
		matcher:  NewMatcher(catalog, opts.MatchConcurrency, logger),
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Generate выполняет конвейер: распознавание намерения, сопоставление с каталогом,
// бюджет, исключение категорий и итоги. Промпт должен быть проверен вызывающей стороной.
func (g *Generator) Generate(ctx context.Context, req Request) (Response, error) {
	if pinger, ok := g.catalog.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
	}

	suggested, source, err := g.resolver.Resolve(ctx, req.Prompt)
	if err != nil {
		return Response{}, fmt.Errorf("resolve intent: %w", err)
	}

	suggested = normalizeSuggestions(suggested, g.maxItems)

	items := g.matcher.Match(ctx, suggested)
	items = Allocate(items, req.Preferences.MaxBudget)
	// Exclusion runs after allocation: budget freed by excluded items is not refilled.
	items = ExcludeCategories(items, req.Preferences.ExcludeCategories)

	return Response{
		Prompt:      req.Prompt,
		Source:      source,
		Categories:  Categories(items),
		Items:       items,
		Summary:     Summarize(items),
		GeneratedAt: g.now().UTC(),
	}, nil
}

// ValidatePrompt проверяет, что промпт не пустой и не длиннее maxLength символов.
func ValidatePrompt(prompt string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxPromptLength
	}

	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidPrompt)
	}
	if utf8.RuneCountInString(trimmed) > maxLength {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidPrompt, maxLength)
	}

	return nil
}

func normalizeSuggestions(items []SuggestedItem, maxItems int) []SuggestedItem {
	out := make([]SuggestedItem, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		item.Category = normalizeCategory(item.Category)
		item.ReferenceCode = strings.TrimSpace(item.ReferenceCode)
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.UnitPrice.IsNegative() {
			item.UnitPrice = decimal.Zero
		}
		out = append(out, item)
		if len(out) == maxItems {
			break
		}
	}
	return out
}
