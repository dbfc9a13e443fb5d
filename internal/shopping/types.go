package shopping

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrompt      = errors.New("invalid prompt")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNotFound           = errors.New("not found")
)

const (
	SourceAI      = "ai"
	SourceKeyword = "keyword"
)

type SuggestedItem struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	ReferenceCode string          `json:"reference_code,omitempty"`
}

type CatalogRecord struct {
	ID              int64
	ReferenceCode   string
	Name            string
	Category        string
	Price           decimal.Decimal
	Discount        decimal.Decimal
	Stock           int
	IsActive        bool
	Keywords        []string
	PrimaryImageRef *string
}

// MatchedItem: CatalogID == nil означает, что запись в каталоге не найдена.
type MatchedItem struct {
	SuggestedItem
	CatalogID      *int64          `json:"catalog_id"`
	ResolvedPrice  decimal.Decimal `json:"resolved_price"`
	InStock        bool            `json:"in_stock"`
	AvailableStock int             `json:"available_stock"`
	Discount       decimal.Decimal `json:"discount"`
	ImageURL       *string         `json:"image_url,omitempty"`
}

// Cost возвращает стоимость позиции: цена * количество.
func (m MatchedItem) Cost() decimal.Decimal {
	return m.ResolvedPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

type Preferences struct {
	MaxBudget         *decimal.Decimal
	ExcludeCategories []string
}

type Request struct {
	Prompt      string
	Preferences Preferences
}

type Summary struct {
	TotalItems       int             `json:"total_items"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
	AvailableItems   int             `json:"available_items"`
	UnavailableItems int             `json:"unavailable_items"`
	PerCategoryCount map[string]int  `json:"per_category_count"`
}

type Response struct {
	Prompt      string        `json:"prompt"`
	Source      string        `json:"source"`
	Categories  []string      `json:"categories"`
	Items       []MatchedItem `json:"items"`
	Summary     Summary       `json:"summary"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// IntentResolver превращает текстовый запрос в упорядоченный список предложенных позиций.
// Вторым значением возвращается источник позиций (SourceAI или SourceKeyword).
type IntentResolver interface {
	Resolve(ctx context.Context, prompt string) ([]SuggestedItem, string, error)
}

// CatalogLookup ищет активные записи каталога. При отсутствии записи возвращается ErrNotFound.
type CatalogLookup interface {
	FindByCode(ctx context.Context, code string) (CatalogRecord, error)
	FindByNamePattern(ctx context.Context, text string) (CatalogRecord, error)
	FindByKeywords(ctx context.Context, tokens []string) (CatalogRecord, error)
}

// Pinger реализуется каталогом, который умеет проверять доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}
