package devapi

import "github.com/sdm/cabinet-client/internal/core/domain"

var seedCatalog = []CatalogItem{
	{Name: "Apple", Type: "Fruit"},
	{Name: "Banana", Type: "Fruit"},
	{Name: "Lemon", Type: "Fruit"},
	{Name: "Strawberry", Type: "Fruit"},
	{Name: "Carrot", Type: "Vegetable"},
	{Name: "Cucumber", Type: "Vegetable"},
	{Name: "Spinach", Type: "Vegetable"},
	{Name: "Milk", Type: "Liquid"},
	{Name: "Orange juice", Type: "Liquid"},
	{Name: "Water", Type: "Liquid"},
	{Name: "Greek yogurt", Type: "Yogurt"},
	{Name: "Honey", Type: "Other"},
}

var seedRecipes = []domain.Recipe{
	{
		Name:         "Green Smoothie",
		Instructions: "Blend spinach, banana and apple with water until smooth.",
		Ingredients:  []string{"Spinach", "Banana", "Apple", "Water"},
	},
	{
		Name:         "Berry Yogurt Bowl",
		Instructions: "Top the yogurt with sliced strawberries and drizzle with honey.",
		Ingredients:  []string{"Strawberry", "Greek yogurt", "Honey"},
	},
	{
		Name:         "Lemonade",
		Instructions: "Squeeze the lemons, stir in honey and top up with cold water.",
		Ingredients:  []string{"Lemon", "Water", "Honey"},
	},
	{
		Name:         "Carrot Sunrise",
		Instructions: "Juice the carrots and mix with orange juice.",
		Ingredients:  []string{"Carrot", "Orange juice"},
	},
	{
		Name:         "Cucumber Cooler",
		Instructions: "Blend cucumber with lemon juice and water, serve over ice.",
		Ingredients:  []string{"Cucumber", "Lemon", "Water"},
	},
}
