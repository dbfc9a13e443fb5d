package shopping

import "github.com/shopspring/decimal"

// Summarize пересчитывает итоги по финальному списку.
func Summarize(items []MatchedItem) Summary {
	summary := Summary{
		TotalItems:       len(items),
		EstimatedCost:    decimal.Zero,
		PerCategoryCount: make(map[string]int),
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost())
		if item.InStock {
			summary.AvailableItems++
		} else {
			summary.UnavailableItems++
		}
		summary.PerCategoryCount[item.Category]++
	}

	// Round is half away from zero, costs are never negative.
	summary.EstimatedCost = total.Round(2)
	return summary
}

// Categories возвращает категории, присутствующие в списке, в порядке первого появления.
func Categories(items []MatchedItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0)
	for _, item := range items {
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		out = append(out, item.Category)
	}
	return out
}
