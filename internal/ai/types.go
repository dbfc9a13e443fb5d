package ai

import "github.com/shopspring/decimal"

type ShoppingListInput struct {
	Prompt   string `json:"prompt"`
	MaxItems int    `json:"max_items"`
	Currency string `json:"currency"`
}

type ShoppingListResponse struct {
	Items []ShoppingItem `json:"items"`
}

type ShoppingItem struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	ReferenceCode string          `json:"reference_code,omitempty"`
}
