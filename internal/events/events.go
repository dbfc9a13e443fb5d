package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/shopping"
)

const TypeListGenerated = "shopping_list_generated"

type ListGenerated struct {
	Type             string          `json:"type"`
	UserID           uuid.UUID       `json:"user_id"`
	Prompt           string          `json:"prompt"`
	Source           string          `json:"source"`
	TotalItems       int             `json:"total_items"`
	AvailableItems   int             `json:"available_items"`
	UnavailableItems int             `json:"unavailable_items"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost"`
	Categories       []string        `json:"categories"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type Publisher interface {
	PublishListGenerated(ctx context.Context, event ListGenerated) error
	Close() error
}

// NewListGenerated собирает событие по результату генерации.
func NewListGenerated(userID uuid.UUID, response shopping.Response) ListGenerated {
	return ListGenerated{
		Type:             TypeListGenerated,
		UserID:           userID,
		Prompt:           response.Prompt,
		Source:           response.Source,
		TotalItems:       response.Summary.TotalItems,
		AvailableItems:   response.Summary.AvailableItems,
		UnavailableItems: response.Summary.UnavailableItems,
		EstimatedCost:    response.Summary.EstimatedCost,
		Categories:       response.Categories,
		GeneratedAt:      response.GeneratedAt,
	}
}

type NopPublisher struct{}

func (NopPublisher) PublishListGenerated(context.Context, ListGenerated) error { return nil }

func (NopPublisher) Close() error { return nil }
