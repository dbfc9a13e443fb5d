package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"example.com/shopping-planner/backend/internal/shopping"
)

const (
	maxSuggestedItems = 50
	maxItemQuantity   = 99
	defaultCategory   = "other"
)

const systemPrompt = "You are a shopping assistant for an online store. Respond with JSON only, without extra text."

type IntentResolver struct {
	client   Client
	provider string
	model    string
	maxItems int
	currency string
}

// NewIntentResolver создает резолвер намерений на базе AI-клиента.
func NewIntentResolver(client Client, provider, model string, maxItems int, currency string) *IntentResolver {
	if maxItems <= 0 || maxItems > maxSuggestedItems {
		maxItems = maxSuggestedItems
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}

	return &IntentResolver{client: client, provider: provider, model: model, maxItems: maxItems, currency: currency}
}

// Resolve запрашивает у модели список покупок и валидирует ответ.
func (r *IntentResolver) Resolve(ctx context.Context, prompt string) ([]shopping.SuggestedItem, string, error) {
	trace := traceFromContext(ctx)
	if trace != nil {
		trace.Provider = r.provider
		trace.Model = r.model
	}

	content, err := buildShoppingListPrompt(ShoppingListInput{Prompt: prompt, MaxItems: r.maxItems, Currency: r.currency})
	if err != nil {
		return nil, shopping.SourceAI, err
	}
	if trace != nil {
		trace.Prompt = content
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}

	text, raw, err := r.client.Chat(ctx, messages)
	if trace != nil {
		trace.Raw = raw
		trace.Err = err
	}
	if err != nil {
		return nil, shopping.SourceAI, err
	}

	var response ShoppingListResponse
	if err := parseJSON(text, &response); err != nil {
		r.fail(trace, err)
		return nil, shopping.SourceAI, err
	}

	normalizeShoppingList(&response)
	if err := validateShoppingList(response, r.maxItems); err != nil {
		r.fail(trace, err)
		return nil, shopping.SourceAI, err
	}

	return toSuggestedItems(response.Items), shopping.SourceAI, nil
}

func (r *IntentResolver) fail(trace *Trace, err error) {
	if trace != nil {
		trace.Err = err
	}
}

func buildShoppingListPrompt(input ShoppingListInput) (string, error) {
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Build a shopping list for the customer's intent as JSON.

Requirements:
- Output JSON only, no code fences, no extra text.
- Keep JSON compact (no extra whitespace).
- Schema:
{
  "items": [
    {"name": string, "category": string, "unit_price": number, "quantity": integer, "reference_code": string}
  ]
}
- Order items from most to least essential.
- Use short generic product names (<= 60 chars) that a store catalog would use.
- Use lowercase single-word or two-word categories.
- unit_price is an estimated price in the given currency, quantity >= 1.
- reference_code is optional, leave it empty unless you know the exact store code.
- Provide at most max_items items.

Input:
%s`, string(payload))

	return prompt, nil
}

func parseJSON(input string, target interface{}) error {
	payload := extractJSON(input)
	if payload == "" {
		return errors.New("ai response does not contain json")
	}

	return json.Unmarshal([]byte(payload), target)
}

func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return trimmed[start : end+1]
}

func normalizeShoppingList(response *ShoppingListResponse) {
	for i := range response.Items {
		item := &response.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		item.Category = strings.ToLower(strings.TrimSpace(item.Category))
		if item.Category == "" {
			item.Category = defaultCategory
		}
		item.ReferenceCode = strings.TrimSpace(item.ReferenceCode)
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
	}
}

func validateShoppingList(response ShoppingListResponse, maxItems int) error {
	if len(response.Items) == 0 {
		return errors.New("shopping list items are required")
	}
	if len(response.Items) > maxItems {
		return errors.New("too many items")
	}

	for _, item := range response.Items {
		if item.Name == "" {
			return errors.New("item name is required")
		}
		if len(item.Name) > 200 {
			return errors.New("item name is too long")
		}
		if len(item.Category) > 100 {
			return errors.New("item category is too long")
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("invalid unit_price for %s", item.Name)
		}
		if item.Quantity > maxItemQuantity {
			return fmt.Errorf("invalid quantity for %s", item.Name)
		}
	}

	return nil
}

func toSuggestedItems(items []ShoppingItem) []shopping.SuggestedItem {
	out := make([]shopping.SuggestedItem, 0, len(items))
	for _, item := range items {
		out = append(out, shopping.SuggestedItem{
			Name:          item.Name,
			Category:      item.Category,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			ReferenceCode: item.ReferenceCode,
		})
	}
	return out
}
