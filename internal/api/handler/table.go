package handler

import (
	"strings"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

// Column headers of the ingredient table.
const (
	ColumnIngredient = "Ingredient"
	ColumnType       = "Type"
	ColumnQuantity   = "Quantity"
	ColumnFavorite   = "Favorite"
	ColumnDelete     = "Delete"
	ColumnAddToCart  = "Add to Cart"
)

const ActionAddCustom = "Add Custom Ingredient"

// TableModel is the cabinet page as the data table renders it.
type TableModel struct {
	Page       domain.PageContext `json:"page"`
	Title      string             `json:"title"`
	Columns    []string           `json:"columns"`
	Toolbar    []string           `json:"toolbar,omitempty"`
	SearchText string             `json:"searchText"`
	Rows       []TableRow         `json:"rows"`
}

type TableRow struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	Favorite  bool    `json:"favorite"`
	Deletable bool    `json:"deletable,omitempty"`
	Cartable  bool    `json:"cartable,omitempty"`
}

// NewTableModel lays out rows for page. Rows whose name or type does not
// contain search (case-insensitively) are left out.
func NewTableModel(page domain.PageContext, rows []domain.Ingredient, search string) TableModel {
	t := TableModel{
		Page:       page,
		Title:      "Manage All Supported Ingredients",
		Columns:    []string{ColumnIngredient, ColumnType, ColumnQuantity, ColumnFavorite},
		SearchText: search,
		Rows:       []TableRow{},
	}

	deletable, cartable := false, false
	switch page {
	case domain.PageBrowse:
		t.Title = "Browse Ingredients in Cabinet"
		t.Columns = append(t.Columns, ColumnDelete, ColumnAddToCart)
		deletable, cartable = true, true
	case domain.PageCustom:
		t.Title = "Custom Ingredients"
		t.Columns = append(t.Columns, ColumnDelete)
		t.Toolbar = []string{ActionAddCustom}
		deletable = true
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	for _, ing := range rows {
		if needle != "" &&
			!strings.Contains(strings.ToLower(ing.Name), needle) &&
			!strings.Contains(string(ing.Type), needle) {
			continue
		}
		t.Rows = append(t.Rows, TableRow{
			Name:      ing.Name,
			Type:      string(ing.Type),
			Quantity:  ing.Quantity,
			Favorite:  ing.Favorite,
			Deletable: deletable,
			Cartable:  cartable,
		})
	}
	return t
}
