package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultMatchConcurrency = 8

type Matcher struct {
	catalog     CatalogLookup
	concurrency int
	logger      *slog.Logger
}

// NewMatcher создает сопоставитель позиций с каталогом.
func NewMatcher(catalog CatalogLookup, concurrency int, logger *slog.Logger) *Matcher {
	if concurrency <= 0 {
		concurrency = defaultMatchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Matcher{catalog: catalog, concurrency: concurrency, logger: logger}
}

// Match сопоставляет каждую позицию с каталогом. Длина и порядок результата
// совпадают с входом, ошибка одной позиции превращается в "не найдено".
func (m *Matcher) Match(ctx context.Context, items []SuggestedItem) []MatchedItem {
	results := make([]MatchedItem, len(items))
	if len(items) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i := range items {
		i := i
		g.Go(func() error {
			record, err := m.resolve(gctx, items[i])
			switch {
			case err == nil:
				results[i] = matched(items[i], record)
			case errors.Is(err, ErrNotFound):
				results[i] = unmatched(items[i])
			default:
				m.logger.Warn("catalog lookup failed",
					slog.Int("item_index", i),
					slog.String("item_name", items[i].Name),
					slog.String("error", err.Error()),
				)
				results[i] = unmatched(items[i])
			}
			return nil
		})
	}

	// goroutines never return an error
	_ = g.Wait()

	return results
}

func (m *Matcher) resolve(ctx context.Context, item SuggestedItem) (record CatalogRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog lookup panic: %v", r)
		}
	}()

	if code := strings.TrimSpace(item.ReferenceCode); code != "" {
		record, err = m.catalog.FindByCode(ctx, code)
		if !errors.Is(err, ErrNotFound) {
			return record, err
		}
	}

	if name := strings.TrimSpace(item.Name); name != "" {
		record, err = m.catalog.FindByNamePattern(ctx, name)
		if !errors.Is(err, ErrNotFound) {
			return record, err
		}
	}

	tokens := Tokenize(item.Name)
	if len(tokens) == 0 {
		return CatalogRecord{}, ErrNotFound
	}

	return m.catalog.FindByKeywords(ctx, tokens)
}

// Tokenize разбивает название на уникальные токены в нижнем регистре.
func Tokenize(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

func matched(item SuggestedItem, record CatalogRecord) MatchedItem {
	id := record.ID
	return MatchedItem{
		SuggestedItem:  item,
		CatalogID:      &id,
		ResolvedPrice:  record.Price,
		InStock:        record.Stock > 0,
		AvailableStock: record.Stock,
		Discount:       record.Discount,
		ImageURL:       record.PrimaryImageRef,
	}
}

func unmatched(item SuggestedItem) MatchedItem {
	return MatchedItem{
		SuggestedItem:  item,
		ResolvedPrice:  item.UnitPrice,
		InStock:        false,
		AvailableStock: 0,
		Discount:       decimal.Zero,
	}
}
