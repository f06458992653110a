// Package export writes the cabinet and a recipe feed to an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

const (
	SheetCabinet = "Cabinet"
	SheetRecipes = "Recipes"
)

// Workbook is what gets exported.
type Workbook struct {
	Ingredients []domain.Ingredient
	Feed        domain.FeedView
}

// SaveAs writes the workbook to path.
func (wb Workbook) SaveAs(path string) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// WriteTo writes the workbook to w.
func (wb Workbook) WriteTo(w io.Writer) (int64, error) {
	f, err := wb.build()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteTo(w)
}

func (wb Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCabinet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetRecipes); err != nil {
		return nil, err
	}

	cabinet := [][]any{{"Ingredient", "Type", "Quantity", "Favorite", "Source"}}
	for _, ing := range wb.Ingredients {
		cabinet = append(cabinet, []any{ing.Name, string(ing.Type), ing.Quantity, ing.Favorite, string(ing.Origin)})
	}
	if err := writeRows(f, SheetCabinet, cabinet); err != nil {
		return nil, fmt.Errorf("write %s sheet: %w", SheetCabinet, err)
	}

	recipes := [][]any{{"Recipe", "Ingredients", "Instructions"}}
	for _, r := range wb.Feed.Recipes {
		recipes = append(recipes, []any{r.Name, strings.Join(r.Ingredients, ", "), r.Instructions})
	}
	if !wb.Feed.ShowGrid() {
		recipes = append(recipes, []any{wb.Feed.Message})
	}
	if err := writeRows(f, SheetRecipes, recipes); err != nil {
		return nil, fmt.Errorf("write %s sheet: %w", SheetRecipes, err)
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
