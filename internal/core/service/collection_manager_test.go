package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

func ing(name string, typ domain.IngredientType, qty float64, origin domain.Origin) domain.Ingredient {
	return domain.Ingredient{Name: name, Type: typ, Quantity: qty, Origin: origin}
}

func catalog() *ports.IngredientSet {
	return &ports.IngredientSet{
		Default: []domain.Ingredient{
			ing("Apple", domain.TypeFruit, 2, domain.OriginDefault),
			ing("Milk", domain.TypeLiquid, 1, domain.OriginDefault),
		},
		Custom: []domain.Ingredient{
			ing("Lime", domain.TypeFruit, 3, domain.OriginCustom),
			ing("Mint", domain.TypeOther, 0, domain.OriginCustom),
		},
	}
}

func loadedManager(t *testing.T, page domain.PageContext, opts ...CollectionOption) (*CollectionManager, *stubCabinet, *heldDispatcher) {
	t.Helper()
	cab := &stubCabinet{all: catalog(), user: catalog(), addMsg: "Ingredient added"}
	disp := &heldDispatcher{}
	m := NewCollectionManager(page, cab, disp, zerolog.Nop(), opts...)
	require.NoError(t, m.Load(context.Background()))
	return m, cab, disp
}

func assertDerived(t *testing.T, c domain.Collection) {
	t.Helper()
	want := append(append([]domain.Ingredient{}, c.Default...), c.Custom...)
	assert.Equal(t, want, c.All, "All must equal Default followed by Custom")
}

func TestCollectionManager_Load_PicksEndpointByPage(t *testing.T) {
	browse, cab, _ := loadedManager(t, domain.PageBrowse)
	assert.Equal(t, 1, cab.userCalls)
	assert.Equal(t, 0, cab.allCalls)
	assertDerived(t, browse.Snapshot())

	for _, page := range []domain.PageContext{domain.PageManage, domain.PageCustom} {
		_, cab, _ := loadedManager(t, page)
		assert.Equal(t, 1, cab.allCalls, page)
		assert.Equal(t, 0, cab.userCalls, page)
	}
}

func TestCollectionManager_Load_Once(t *testing.T) {
	m, cab, _ := loadedManager(t, domain.PageManage)

	err := m.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrAlreadyLoaded)
	assert.Equal(t, 1, cab.allCalls)
}

func TestCollectionManager_Load_NoSession(t *testing.T) {
	cab := &stubCabinet{}
	m := NewCollectionManager(domain.PageManage, cab, &heldDispatcher{}, zerolog.Nop())

	require.NoError(t, m.Load(context.Background()))
	snap := m.Snapshot()
	assert.Empty(t, snap.All)
	assert.Empty(t, m.View())
}

func TestCollectionManager_Load_Error(t *testing.T) {
	boom := errors.New("connection refused")
	cab := &stubCabinet{loadErr: boom}
	m := NewCollectionManager(domain.PageBrowse, cab, &heldDispatcher{}, zerolog.Nop())

	assert.ErrorIs(t, m.Load(context.Background()), boom)
}

func TestCollectionManager_View(t *testing.T) {
	custom, _, _ := loadedManager(t, domain.PageCustom)
	assert.Equal(t, []string{"Lime", "Mint"}, domain.Names(custom.View()))

	manage, _, _ := loadedManager(t, domain.PageManage)
	assert.Equal(t, []string{"Apple", "Milk", "Lime", "Mint"}, domain.Names(manage.View()))
	assert.Equal(t, []string{"Apple", "Lime"}, domain.Names(manage.Filter(domain.TypeFruit)))
	assert.Empty(t, manage.Filter(domain.TypeYogurt))
}

func TestCollectionManager_NegativeQuantity_NoChangeNoCall(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage)
	before := m.Snapshot()

	for _, q := range []float64{-1, -0.5, -100} {
		err := m.UpdateQuantity("Apple", q)
		assert.ErrorIs(t, err, domain.ErrNegativeQuantity)
	}
	assert.ErrorIs(t, m.Update("Lime", domain.FieldQuantity, -3.0), domain.ErrNegativeQuantity)

	assert.Equal(t, before, m.Snapshot())
	assert.Empty(t, disp.jobs)
	disp.Run()
	assert.Zero(t, cab.calls())
}

func TestCollectionManager_UpdateQuantity_Optimistic(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage)

	require.NoError(t, m.UpdateQuantity("Lime", 5))

	snap := m.Snapshot()
	assert.Equal(t, 5.0, snap.Custom[0].Quantity)
	assertDerived(t, snap)
	assert.Zero(t, cab.calls(), "write must not have run yet")

	disp.Run()
	require.Len(t, cab.updates, 1)
	assert.Equal(t, "Lime", cab.updates[0].Name)
	assert.Equal(t, 5.0, cab.updates[0].Quantity)
}

func TestCollectionManager_ToggleFavorite(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage)

	require.NoError(t, m.ToggleFavorite("Milk"))
	assert.True(t, m.Snapshot().Default[1].Favorite)
	require.NoError(t, m.Update("Milk", domain.FieldFavorite, false))
	assert.False(t, m.Snapshot().Default[1].Favorite)

	disp.Run()
	require.Len(t, cab.updates, 2)
	assert.True(t, cab.updates[0].Favorite)
	assert.False(t, cab.updates[1].Favorite)
}

func TestCollectionManager_Update_Errors(t *testing.T) {
	m, _, disp := loadedManager(t, domain.PageManage)

	assert.ErrorIs(t, m.UpdateQuantity("Kiwi", 1), domain.ErrUnknownIngredient)
	assert.ErrorIs(t, m.Update("Apple", domain.FieldQuantity, "3"), domain.ErrInvalidInput)
	assert.ErrorIs(t, m.Update("Apple", domain.FieldFavorite, 1.0), domain.ErrInvalidInput)
	assert.ErrorIs(t, m.Update("Apple", domain.Field("name"), "x"), domain.ErrInvalidInput)
	assert.Empty(t, disp.jobs)
}

func TestCollectionManager_LastWriteWins_KeepsOptimisticValue(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage)
	cab.updateErr = errors.New("server down")

	require.NoError(t, m.UpdateQuantity("Apple", 7))
	disp.Run()

	assert.Equal(t, 7.0, m.Snapshot().Default[0].Quantity)
}

func TestCollectionManager_RollbackOnFailure(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage, WithReconcilePolicy(RollbackOnFailure{}))
	cab.updateErr = errors.New("server down")

	require.NoError(t, m.UpdateQuantity("Apple", 7))
	disp.Run()

	assert.Equal(t, 2.0, m.Snapshot().Default[0].Quantity)
	assertDerived(t, m.Snapshot())
}

func TestCollectionManager_RollbackOnFailure_IgnoresSupersededWrite(t *testing.T) {
	m, cab, disp := loadedManager(t, domain.PageManage, WithReconcilePolicy(RollbackOnFailure{}))

	require.NoError(t, m.UpdateQuantity("Apple", 7))
	require.NoError(t, m.UpdateQuantity("Apple", 9))

	// The older write fails after the newer one is issued.
	cab.updateErr = errors.New("timeout")
	disp.Run(0)

	assert.Equal(t, 9.0, m.Snapshot().Default[0].Quantity)
}

func TestCollectionManager_DeleteCustomIngredient_LimeMint(t *testing.T) {
	cases := []struct {
		name       string
		deleteErr  error
		userDelErr error
	}{
		{name: "both succeed"},
		{name: "custom delete fails", deleteErr: errors.New("500")},
		{name: "user delete fails", userDelErr: errors.New("500")},
		{name: "both fail", deleteErr: errors.New("500"), userDelErr: errors.New("500")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cab := &stubCabinet{all: &ports.IngredientSet{
				Custom: []domain.Ingredient{
					ing("Lime", domain.TypeFruit, 1, domain.OriginCustom),
					ing("Mint", domain.TypeOther, 1, domain.OriginCustom),
				},
			}}
			cab.deleteErr = tc.deleteErr
			cab.userDelErr = tc.userDelErr
			disp := &heldDispatcher{}
			m := NewCollectionManager(domain.PageCustom, cab, disp, zerolog.Nop())
			require.NoError(t, m.Load(context.Background()))

			require.NoError(t, m.DeleteCustomIngredient("Lime"))

			snap := m.Snapshot()
			assert.Equal(t, []string{"Mint"}, domain.Names(snap.Custom))
			assert.NotContains(t, domain.Names(snap.All), "Lime")

			disp.Run()
			assert.Equal(t, []string{"Lime"}, cab.customDels)
			assert.Equal(t, [][]string{{"Lime"}}, cab.userDels)

			snap = m.Snapshot()
			assert.Equal(t, []string{"Mint"}, domain.Names(snap.Custom))
			assertDerived(t, snap)
		})
	}
}

func TestCollectionManager_DeleteUnknown(t *testing.T) {
	m, _, disp := loadedManager(t, domain.PageCustom)

	assert.ErrorIs(t, m.DeleteCustomIngredient("Kiwi"), domain.ErrUnknownIngredient)
	assert.Empty(t, disp.jobs)
}

func TestCollectionManager_DeleteOnBrowseRemovesFromInventory(t *testing.T) {
	m, _, _ := loadedManager(t, domain.PageBrowse)

	require.NoError(t, m.DeleteCustomIngredient("Milk"))

	snap := m.Snapshot()
	assert.Equal(t, []string{"Apple"}, domain.Names(snap.Default))
	assertDerived(t, snap)
}

func TestCollectionManager_AddCustomIngredient_Refetches(t *testing.T) {
	m, cab, _ := loadedManager(t, domain.PageCustom)
	cab.all = &ports.IngredientSet{
		Default: catalog().Default,
		Custom: append(catalog().Custom,
			ing("Basil", domain.TypeOther, 0, domain.OriginCustom)),
	}

	require.NoError(t, m.AddCustomIngredient(context.Background(), "basil", "Other"))

	assert.Equal(t, []string{"basil"}, cab.customAdded)
	assert.Equal(t, 2, cab.allCalls)
	snap := m.Snapshot()
	assert.Equal(t, []string{"Lime", "Mint", "Basil"}, domain.Names(snap.Custom))
	assertDerived(t, snap)
}

func TestCollectionManager_AddCustomIngredient_BackendError(t *testing.T) {
	notifier := &stubNotifier{}
	m, cab, _ := loadedManager(t, domain.PageCustom, WithNotifier(notifier))
	cab.addErr = &domain.BackendError{Message: "Ingredient already exists"}
	before := m.Snapshot()

	err := m.AddCustomIngredient(context.Background(), "Lime", "fruit")

	var be *domain.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []string{"Ingredient already exists"}, notifier.alerts)
	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, 1, cab.allCalls, "no refetch on error")
}

func TestCollectionManager_AddCustomIngredient_Validation(t *testing.T) {
	m, cab, _ := loadedManager(t, domain.PageCustom)

	assert.ErrorIs(t, m.AddCustomIngredient(context.Background(), "  ", "fruit"), domain.ErrInvalidInput)
	assert.ErrorIs(t, m.AddCustomIngredient(context.Background(), "Basil", "herb"), domain.ErrInvalidIngredientType)
	assert.Empty(t, cab.customAdded)
}

func TestCollectionManager_AddToCart(t *testing.T) {
	queue := &stubQueue{}
	bridge := NewShoppingListBridge(queue, zerolog.Nop())

	browse, _, _ := loadedManager(t, domain.PageBrowse, WithShoppingList(bridge))
	require.NoError(t, browse.AddToCart("Lime"))
	require.NoError(t, browse.UpdateQuantity("Apple", 1.5))
	require.NoError(t, browse.AddToCart("Apple"))

	require.Len(t, queue.cmds, 2)
	assert.Equal(t, []string{"3 Lime"}, queue.cmds[0].Products)
	assert.Equal(t, []string{"1.5 Apple"}, queue.cmds[1].Products)

	assert.ErrorIs(t, browse.AddToCart("Kiwi"), domain.ErrUnknownIngredient)

	manage, _, _ := loadedManager(t, domain.PageManage, WithShoppingList(bridge))
	assert.ErrorIs(t, manage.AddToCart("Lime"), domain.ErrNotBrowsePage)
}
