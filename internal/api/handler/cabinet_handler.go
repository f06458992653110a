package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/internal/core/service"
)

// cabinetPage is one mounted cabinet page: its collections and its search
// box.
type cabinetPage struct {
	manager *service.CollectionManager
	search  *service.SearchDebouncer
}

// CabinetHandler serves the three cabinet pages. Mounting a page (GET)
// replaces whatever that page held before; the other routes act on the
// mounted page, mounting it first if needed.
type CabinetHandler struct {
	cabinet    ports.CabinetAPI
	dispatcher ports.TaskDispatcher
	cart       *service.ShoppingListBridge
	policy     service.ReconcilePolicy
	debounce   time.Duration
	log        zerolog.Logger

	mu    sync.Mutex
	pages map[domain.PageContext]*cabinetPage
}

type CabinetOption func(*CabinetHandler)

func WithShoppingList(b *service.ShoppingListBridge) CabinetOption {
	return func(h *CabinetHandler) { h.cart = b }
}

func WithReconcilePolicy(p service.ReconcilePolicy) CabinetOption {
	return func(h *CabinetHandler) { h.policy = p }
}

func WithSearchDebounce(d time.Duration) CabinetOption {
	return func(h *CabinetHandler) { h.debounce = d }
}

func NewCabinetHandler(cabinet ports.CabinetAPI, dispatcher ports.TaskDispatcher, log zerolog.Logger, opts ...CabinetOption) *CabinetHandler {
	h := &CabinetHandler{
		cabinet:    cabinet,
		dispatcher: dispatcher,
		debounce:   service.DefaultSearchDebounce,
		log:        log,
		pages:      make(map[domain.PageContext]*cabinetPage),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type updateIngredientForm struct {
	Quantity *float64 `json:"quantity"`
	Favorite *bool    `json:"favorite"`
}

type customIngredientForm struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

type searchForm struct {
	Text string `json:"text"`
}

type searchResponse struct {
	Live      string    `json:"live"`
	Committed string    `json:"committed"`
	At        time.Time `json:"committedAt"`
}

// Show mounts the page named in the path and renders its table. ?search=
// seeds the search box; ?type= narrows the rows to one ingredient type.
func (h *CabinetHandler) Show(c echo.Context) error {
	page := domain.PageContextOf(c.Param("page"))
	p, err := h.mount(c.Request().Context(), page, c.QueryParam("search"))
	if err != nil {
		return err
	}
	return h.render(c, page, p)
}

// UpdateIngredient changes quantity and/or favorite. Persistence is
// dispatched; the response reflects the local state. A negative quantity
// is dropped and answered with 204.
func (h *CabinetHandler) UpdateIngredient(c echo.Context) error {
	var form updateIngredientForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	page, p, err := h.current(c)
	if err != nil {
		return err
	}
	name := c.Param("name")
	if form.Quantity != nil {
		if err := p.manager.UpdateQuantity(name, *form.Quantity); err != nil {
			return err
		}
	}
	if form.Favorite != nil {
		if err := p.manager.SetFavorite(name, *form.Favorite); err != nil {
			return err
		}
	}
	return h.render(c, page, p)
}

func (h *CabinetHandler) ToggleFavorite(c echo.Context) error {
	page, p, err := h.current(c)
	if err != nil {
		return err
	}
	if err := p.manager.ToggleFavorite(c.Param("name")); err != nil {
		return err
	}
	return h.render(c, page, p)
}

func (h *CabinetHandler) DeleteIngredient(c echo.Context) error {
	page, p, err := h.current(c)
	if err != nil {
		return err
	}
	if page == domain.PageManage {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "ingredients are deleted from the browse or custom page")
	}
	if err := p.manager.DeleteCustomIngredient(c.Param("name")); err != nil {
		return err
	}
	return h.render(c, page, p)
}

// AddCustomIngredient is the custom page's toolbar action.
func (h *CabinetHandler) AddCustomIngredient(c echo.Context) error {
	var form customIngredientForm
	if err := bind(c, &form); err != nil {
		return err
	}
	page, p, err := h.current(c)
	if err != nil {
		return err
	}
	if page != domain.PageCustom {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "custom ingredients are added from the custom page")
	}
	if err := p.manager.AddCustomIngredient(c.Request().Context(), form.Name, form.Type); err != nil {
		return err
	}
	return h.render(c, page, p)
}

func (h *CabinetHandler) AddToCart(c echo.Context) error {
	_, p, err := h.current(c)
	if err != nil {
		return err
	}
	if err := p.manager.AddToCart(c.Param("name")); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "added to shopping list"})
}

// Search feeds the page's search box. The text is committed once input
// has been quiet for the debounce window.
func (h *CabinetHandler) Search(c echo.Context) error {
	var form searchForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	_, p, err := h.current(c)
	if err != nil {
		return err
	}
	p.search.Change(form.Text)
	state := p.search.Committed()
	return c.JSON(http.StatusAccepted, searchResponse{Live: p.search.Live(), Committed: state.Text, At: state.LastCommittedAt})
}

func (h *CabinetHandler) current(c echo.Context) (domain.PageContext, *cabinetPage, error) {
	page := domain.PageContextOf(c.Param("page"))
	h.mu.Lock()
	p, ok := h.pages[page]
	h.mu.Unlock()
	if ok {
		return page, p, nil
	}
	p, err := h.mount(c.Request().Context(), page, "")
	return page, p, err
}

func (h *CabinetHandler) mount(ctx context.Context, page domain.PageContext, search string) (*cabinetPage, error) {
	opts := []service.CollectionOption{service.WithReconcilePolicy(h.policy)}
	if h.cart != nil {
		opts = append(opts, service.WithShoppingList(h.cart))
	}
	p := &cabinetPage{
		manager: service.NewCollectionManager(page, h.cabinet, h.dispatcher, h.log, opts...),
		search:  service.NewSearchDebouncer(h.debounce, service.WithInitialText(search)),
	}
	if err := p.manager.Load(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	if old, ok := h.pages[page]; ok {
		old.search.Stop()
	}
	h.pages[page] = p
	h.mu.Unlock()
	return p, nil
}

func (h *CabinetHandler) render(c echo.Context, page domain.PageContext, p *cabinetPage) error {
	rows := p.manager.View()
	if raw := c.QueryParam("type"); raw != "" {
		typ, err := domain.ParseIngredientType(raw)
		if err != nil {
			return err
		}
		rows = p.manager.Filter(typ)
	}
	return c.JSON(http.StatusOK, NewTableModel(page, rows, p.search.Committed().Text))
}
