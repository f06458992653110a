package domain

// Recipe is read-only from the client's perspective.
type Recipe struct {
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	Ingredients  []string `json:"ingredients"`
}

// FeedContext selects one of the three recipe views.
type FeedContext string

const (
	FeedAll     FeedContext = "all"
	FeedFilter  FeedContext = "filter"
	FeedPartial FeedContext = "partial"
)

// NotEnoughIngredientsMessage is shown instead of an empty grid for the
// cabinet-filtered feeds.
const NotEnoughIngredientsMessage = "Not enough ingredients to make any recipes. Add ingredients to your cabinet."

// FeedView is what a recipes page renders: either a grid of recipes or,
// for filtered feeds with no results, an explanatory message.
type FeedView struct {
	Context FeedContext
	Recipes []Recipe
	Message string
}

// ShowGrid reports whether the grid should be rendered.
func (v FeedView) ShowGrid() bool {
	return v.Message == ""
}
