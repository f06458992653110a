package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

func TestWorkbook_WriteTo(t *testing.T) {
	wb := Workbook{
		Ingredients: []domain.Ingredient{
			{Name: "Lemon", Type: domain.TypeFruit, Quantity: 2, Favorite: true, Origin: domain.OriginDefault},
			{Name: "Basil", Type: domain.TypeOther, Quantity: 0.5, Origin: domain.OriginCustom},
		},
		Feed: domain.FeedView{
			Context: domain.FeedAll,
			Recipes: []domain.Recipe{{Name: "Lemonade", Instructions: "Stir.", Ingredients: []string{"Lemon", "Water"}}},
		},
	}

	var buf bytes.Buffer
	_, err := wb.WriteTo(&buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCabinet, SheetRecipes}, f.GetSheetList())

	rows, err := f.GetRows(SheetCabinet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Ingredient", "Type", "Quantity", "Favorite", "Source"}, rows[0])
	assert.Equal(t, []string{"Lemon", "fruit", "2", "TRUE", "default"}, rows[1])
	assert.Equal(t, "0.5", rows[2][2])

	rows, err = f.GetRows(SheetRecipes)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Lemonade", "Lemon, Water", "Stir."}, rows[1])
}

func TestWorkbook_EmptyFilteredFeedCarriesMessage(t *testing.T) {
	wb := Workbook{Feed: domain.FeedView{Context: domain.FeedFilter, Message: domain.NotEnoughIngredientsMessage}}
	path := filepath.Join(t.TempDir(), "cabinet.xlsx")
	require.NoError(t, wb.SaveAs(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetRecipes)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.NotEnoughIngredientsMessage, rows[1][0])

	cabinet, err := f.GetRows(SheetCabinet)
	require.NoError(t, err)
	assert.Len(t, cabinet, 1)
}
