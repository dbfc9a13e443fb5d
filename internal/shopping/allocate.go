package shopping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Allocate жадно отбирает позиции слева направо, пока суммарная стоимость
// не превышает maxBudget. Пропущенные позиции не возвращаются, порядок сохраняется.
func Allocate(items []MatchedItem, maxBudget *decimal.Decimal) []MatchedItem {
	if maxBudget == nil {
		return items
	}

	selected := make([]MatchedItem, 0, len(items))
	runningTotal := decimal.Zero

	for _, item := range items {
		next := runningTotal.Add(item.Cost())
		if next.GreaterThan(*maxBudget) {
			continue
		}
		selected = append(selected, item)
		runningTotal = next
	}

	return selected
}

// ExcludeCategories убирает позиции из исключенных категорий, не меняя порядок остальных.
// Категории сравниваются без учета регистра и пробелов по краям.
func ExcludeCategories(items []MatchedItem, excluded []string) []MatchedItem {
	if len(excluded) == 0 {
		return items
	}

	set := make(map[string]struct{}, len(excluded))
	for _, category := range excluded {
		if normalized := normalizeCategory(category); normalized != "" {
			set[normalized] = struct{}{}
		}
	}

	out := make([]MatchedItem, 0, len(items))
	for _, item := range items {
		if _, ok := set[normalizeCategory(item.Category)]; ok {
			continue
		}
		out = append(out, item)
	}

	return out
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
