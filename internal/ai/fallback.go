package ai

import (
	"context"
	"log/slog"

	"example.com/shopping-planner/backend/internal/shopping"
)

// FallbackResolver сначала обращается к основному резолверу, а при ошибке
// или пустом ответе использует запасной.
type FallbackResolver struct {
	primary  shopping.IntentResolver
	fallback shopping.IntentResolver
	logger   *slog.Logger
}

// NewFallbackResolver создает резолвер с запасным источником списков.
func NewFallbackResolver(primary, fallback shopping.IntentResolver, logger *slog.Logger) *FallbackResolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &FallbackResolver{primary: primary, fallback: fallback, logger: logger}
}

// Resolve возвращает позиции основного резолвера либо запасного.
func (r *FallbackResolver) Resolve(ctx context.Context, prompt string) ([]shopping.SuggestedItem, string, error) {
	if r.primary == nil {
		return r.fallback.Resolve(ctx, prompt)
	}

	items, source, err := r.primary.Resolve(ctx, prompt)
	if err == nil && len(items) > 0 {
		r.logger.Info("shopping list resolved", slog.String("source", source), slog.Int("items", len(items)))
		return items, source, nil
	}

	attrs := []any{slog.Int("items", len(items))}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	r.logger.Warn("shopping list fallback used", attrs...)

	return r.fallback.Resolve(ctx, prompt)
}
