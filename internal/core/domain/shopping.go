package domain

// Shopping list widget constants.
const (
	ShoppingListAnchorID = "whisk-shopping-list"
	ActionViewList       = "shoppingList.viewList"
)

// CommandKind distinguishes the two shopping list commands.
type CommandKind string

const (
	CommandViewList       CommandKind = "viewList"
	CommandAddIngredients CommandKind = "addIngredients"
)

// ShoppingListWidget is the surface the external widget exposes to queued
// commands once it is ready.
type ShoppingListWidget interface {
	AddClickListener(elementID, action string)
	AddProductsToList(products []string)
}

// ShoppingListCommand is a deferred unit of work executed against the widget
// once it becomes ready.
type ShoppingListCommand struct {
	ID       string
	Kind     CommandKind
	Products []string
	Run      func(ShoppingListWidget)
}
