package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/shopping-planner/backend/internal/shopping"
)

const (
	keyPrefix  = "catalog:"
	scanBatch  = 200
	defaultTTL = 5 * time.Minute
)

// CatalogCache кеширует найденные записи каталога в Redis поверх основного хранилища.
// Ошибки Redis не прерывают поиск: запрос уходит в основное хранилище.
type CatalogCache struct {
	next   shopping.CatalogLookup
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalogCache оборачивает каталог read-through кешем.
func NewCatalogCache(next shopping.CatalogLookup, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// FindByCode ищет запись по коду сначала в кеше.
func (c *CatalogCache) FindByCode(ctx context.Context, code string) (shopping.CatalogRecord, error) {
	return c.lookup(ctx, codeKey(code), func(ctx context.Context) (shopping.CatalogRecord, error) {
		return c.next.FindByCode(ctx, code)
	})
}

// FindByNamePattern ищет запись по подстроке названия сначала в кеше.
func (c *CatalogCache) FindByNamePattern(ctx context.Context, text string) (shopping.CatalogRecord, error) {
	return c.lookup(ctx, nameKey(text), func(ctx context.Context) (shopping.CatalogRecord, error) {
		return c.next.FindByNamePattern(ctx, text)
	})
}

// FindByKeywords ищет запись по набору токенов сначала в кеше.
func (c *CatalogCache) FindByKeywords(ctx context.Context, tokens []string) (shopping.CatalogRecord, error) {
	return c.lookup(ctx, keywordsKey(tokens), func(ctx context.Context) (shopping.CatalogRecord, error) {
		return c.next.FindByKeywords(ctx, tokens)
	})
}

// Ping проверяет основное хранилище, Redis на доступность каталога не влияет.
func (c *CatalogCache) Ping(ctx context.Context) error {
	if pinger, ok := c.next.(shopping.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Invalidate удаляет все закешированные записи каталога.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *CatalogCache) lookup(ctx context.Context, key string, load func(context.Context) (shopping.CatalogRecord, error)) (shopping.CatalogRecord, error) {
	if record, ok := c.get(ctx, key); ok {
		return record, nil
	}

	record, err := load(ctx)
	if err != nil {
		return record, err
	}

	c.set(ctx, key, record)
	return record, nil
}

func (c *CatalogCache) get(ctx context.Context, key string) (shopping.CatalogRecord, bool) {
	var record shopping.CatalogRecord

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return record, false
	}

	if err := json.Unmarshal(raw, &record); err != nil {
		c.logger.Warn("catalog cache entry is corrupted", "key", key, "error", err)
		return record, false
	}

	return record, true
}

func (c *CatalogCache) set(ctx context.Context, key string, record shopping.CatalogRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func codeKey(code string) string {
	return keyPrefix + "code:" + code
}

func nameKey(text string) string {
	return keyPrefix + "name:" + strings.ToLower(text)
}

func keywordsKey(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return keyPrefix + "kw:" + strings.Join(sorted, ",")
}
