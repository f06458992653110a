package domain

import (
	"slices"
	"strings"
)

// IngredientType classifies an ingredient for the side-navigation filters.
type IngredientType string

const (
	TypeFruit     IngredientType = "fruit"
	TypeVegetable IngredientType = "vegetable"
	TypeLiquid    IngredientType = "liquid"
	TypeYogurt    IngredientType = "yogurt"
	TypeOther     IngredientType = "other"
)

// IngredientTypes lists every type in side-navigation order.
var IngredientTypes = []IngredientType{TypeFruit, TypeVegetable, TypeLiquid, TypeYogurt, TypeOther}

// ParseIngredientType accepts any casing ("Fruit", "fruit") since the backend
// capitalizes type names on the way out.
func ParseIngredientType(s string) (IngredientType, error) {
	t := IngredientType(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(IngredientTypes, t) {
		return t, nil
	}
	return "", ErrInvalidIngredientType
}

// Origin records which backend collection an ingredient came from.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginCustom  Origin = "custom"
)

// Ingredient is a single cabinet entry. Quantity is never negative.
type Ingredient struct {
	Name     string
	Type     IngredientType
	Quantity float64
	Favorite bool
	Origin   Origin
}

// Field names a mutable ingredient column.
type Field string

const (
	FieldQuantity Field = "quantity"
	FieldFavorite Field = "favorite"
)

// PageContext selects which collection a cabinet page shows.
type PageContext string

const (
	PageManage PageContext = "manage"
	PageBrowse PageContext = "browse"
	PageCustom PageContext = "custom"
)

// PageContextOf maps a path segment to a page. Anything unrecognized shows
// the full catalog.
func PageContextOf(s string) PageContext {
	switch p := PageContext(strings.ToLower(s)); p {
	case PageBrowse, PageCustom:
		return p
	}
	return PageManage
}

// Collection holds the two backend sources and the derived All view.
// All is always Default followed by Custom.
type Collection struct {
	Default []Ingredient
	Custom  []Ingredient
	All     []Ingredient
}

// NewCollection builds a collection and derives All.
func NewCollection(def, custom []Ingredient) Collection {
	c := Collection{Default: def, Custom: custom}
	c.Derive()
	return c
}

// Derive recomputes All from the two sources.
func (c *Collection) Derive() {
	all := make([]Ingredient, 0, len(c.Default)+len(c.Custom))
	all = append(all, c.Default...)
	all = append(all, c.Custom...)
	c.All = all
}

// Clone returns a deep copy safe to hand out to readers.
func (c Collection) Clone() Collection {
	return Collection{
		Default: slices.Clone(c.Default),
		Custom:  slices.Clone(c.Custom),
		All:     slices.Clone(c.All),
	}
}

// Names returns the ingredient names in order.
func Names(ingredients []Ingredient) []string {
	out := make([]string, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ing.Name
	}
	return out
}
