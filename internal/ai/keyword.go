package ai

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/shopping"
)

type keywordList struct {
	Keywords []string
	Items    []shopping.SuggestedItem
}

// KeywordResolver подбирает заранее заданный список по ключевым словам промпта.
type KeywordResolver struct {
	lists    []keywordList
	fallback []shopping.SuggestedItem
}

// NewKeywordResolver создает резолвер со встроенными списками.
func NewKeywordResolver() *KeywordResolver {
	return &KeywordResolver{lists: defaultKeywordLists(), fallback: genericList()}
}

// Resolve возвращает первый список, ключевое слово которого встречается в промпте.
func (r *KeywordResolver) Resolve(_ context.Context, prompt string) ([]shopping.SuggestedItem, string, error) {
	normalized := strings.ToLower(prompt)
	for _, list := range r.lists {
		for _, keyword := range list.Keywords {
			if strings.Contains(normalized, keyword) {
				return cloneItems(list.Items), shopping.SourceKeyword, nil
			}
		}
	}

	return cloneItems(r.fallback), shopping.SourceKeyword, nil
}

func cloneItems(items []shopping.SuggestedItem) []shopping.SuggestedItem {
	out := make([]shopping.SuggestedItem, len(items))
	copy(out, items)
	return out
}

func item(name, category, price string, quantity int) shopping.SuggestedItem {
	return shopping.SuggestedItem{
		Name:      name,
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  quantity,
	}
}

func defaultKeywordLists() []keywordList {
	return []keywordList{
		{
			Keywords: []string{"camping", "camp", "hiking", "tent", "поход", "кемпинг"},
			Items: []shopping.SuggestedItem{
				item("tent", "camping", "120.00", 1),
				item("sleeping bag", "camping", "60.00", 2),
				item("camping stove", "camping", "45.00", 1),
				item("flashlight", "electronics", "15.00", 2),
				item("first aid kit", "health", "25.00", 1),
				item("water bottle", "camping", "12.00", 2),
				item("insect repellent", "health", "8.00", 1),
				item("trail mix", "food", "6.50", 3),
			},
		},
		{
			Keywords: []string{"party", "birthday", "celebration", "праздник", "день рождения", "вечеринк"},
			Items: []shopping.SuggestedItem{
				item("balloons", "decorations", "9.99", 2),
				item("paper plates", "tableware", "6.50", 2),
				item("plastic cups", "tableware", "5.00", 2),
				item("birthday candles", "decorations", "3.50", 1),
				item("party snacks", "food", "15.00", 3),
				item("soda", "drinks", "2.50", 12),
				item("bluetooth speaker", "electronics", "49.00", 1),
			},
		},
		{
			Keywords: []string{"beach", "summer", "vacation", "пляж", "море", "отпуск"},
			Items: []shopping.SuggestedItem{
				item("sunscreen", "health", "14.00", 2),
				item("beach towel", "textiles", "18.00", 2),
				item("sunglasses", "accessories", "25.00", 1),
				item("beach umbrella", "outdoor", "40.00", 1),
				item("cooler bag", "outdoor", "30.00", 1),
				item("flip flops", "footwear", "12.00", 2),
			},
		},
		{
			Keywords: []string{"school", "study", "student", "школ", "учеб"},
			Items: []shopping.SuggestedItem{
				item("backpack", "bags", "45.00", 1),
				item("notebook", "stationery", "3.00", 6),
				item("pens", "stationery", "4.50", 2),
				item("pencil case", "stationery", "8.00", 1),
				item("calculator", "electronics", "20.00", 1),
				item("lunch box", "kitchen", "12.00", 1),
			},
		},
		{
			Keywords: []string{"cooking", "dinner", "kitchen", "recipe", "ужин", "готов", "кухн"},
			Items: []shopping.SuggestedItem{
				item("frying pan", "kitchen", "35.00", 1),
				item("chef knife", "kitchen", "40.00", 1),
				item("cutting board", "kitchen", "15.00", 1),
				item("olive oil", "groceries", "9.00", 1),
				item("spices set", "groceries", "18.00", 1),
				item("pasta", "groceries", "2.50", 3),
			},
		},
		{
			Keywords: []string{"fitness", "gym", "workout", "running", "спорт", "фитнес", "трениров"},
			Items: []shopping.SuggestedItem{
				item("yoga mat", "fitness", "25.00", 1),
				item("dumbbells", "fitness", "55.00", 1),
				item("running shoes", "footwear", "90.00", 1),
				item("sports bottle", "fitness", "10.00", 1),
				item("protein bars", "food", "2.00", 10),
				item("resistance bands", "fitness", "15.00", 1),
			},
		},
		{
			Keywords: []string{"baby", "newborn", "infant", "малыш", "ребен", "новорожд"},
			Items: []shopping.SuggestedItem{
				item("diapers", "baby", "25.00", 3),
				item("baby wipes", "baby", "4.00", 4),
				item("baby bottle", "baby", "9.00", 2),
				item("baby blanket", "textiles", "20.00", 1),
				item("baby shampoo", "health", "6.00", 1),
			},
		},
		{
			Keywords: []string{"garden", "gardening", "plants", "сад", "огород", "дач"},
			Items: []shopping.SuggestedItem{
				item("garden gloves", "garden", "8.00", 2),
				item("watering can", "garden", "15.00", 1),
				item("potting soil", "garden", "12.00", 2),
				item("seeds", "garden", "3.00", 5),
				item("pruning shears", "garden", "22.00", 1),
			},
		},
	}
}

func genericList() []shopping.SuggestedItem {
	return []shopping.SuggestedItem{
		item("reusable shopping bag", "accessories", "3.00", 2),
		item("water bottle", "kitchen", "12.00", 1),
		item("phone charger", "electronics", "19.00", 1),
		item("snacks", "food", "5.00", 2),
	}
}
