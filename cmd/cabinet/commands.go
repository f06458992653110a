package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sdm/cabinet-client/internal/api"
	"github.com/sdm/cabinet-client/internal/api/handler"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/internal/core/service"
	"github.com/sdm/cabinet-client/internal/devapi"
	"github.com/sdm/cabinet-client/internal/export"
	"github.com/sdm/cabinet-client/internal/infrastructure/backend"
	"github.com/sdm/cabinet-client/pkg/logger"
)

// Prompts shown when add-custom is run without arguments.
const (
	PromptCustomName = "Enter a Custom Ingredient Name"
	PromptCustomType = "Enter the Type of Ingredient"
)

// errShown marks an error the user has already been told about.
var errShown = errors.New("already reported")

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":       {"login <login-id> [password]", runLogin},
	"logout":      {"logout", runLogout},
	"whoami":      {"whoami", runWhoAmI},
	"signup":      {"signup <username> <email> [password]", runSignUp},
	"forgot":      {"forgot <login-id>", runForgot},
	"reset":       {"reset <reset-token> [new-password]", runReset},
	"ingredients": {"ingredients [-page manage|browse|custom] [-type T] [-search S]", runIngredients},
	"set-qty":     {"set-qty [-page P] <name> <quantity>", runSetQuantity},
	"favorite":    {"favorite [-page P] <name> [true|false]", runFavorite},
	"add-custom":  {"add-custom [name] [type]", runAddCustom},
	"delete":      {"delete [-page custom|browse] <name>", runDelete},
	"cart":        {"cart [-view] [name...]", runCart},
	"recipes":     {"recipes [all|filter|partial]", runRecipes},
	"export":      {"export [-o file.xlsx] [-feed all|filter|partial]", runExport},
	"status":      {"status", runStatus},
	"serve":       {"serve [-addr :8080]", runServe},
	"devserver":   {"devserver [-addr :5000] [-secret S]", runDevServer},
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// secret returns args[i] when given, otherwise prompts for it.
func (a *app) secret(args []string, i int, label string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	v, ok := a.ui.Prompt(label)
	if !ok {
		return "", invalid("%s is required", strings.ToLower(label))
	}
	return v, nil
}

// --- Session ---

func runLogin(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return invalid("login id is required")
	}
	password, err := a.secret(args, 1, "Password")
	if err != nil {
		return err
	}
	return a.sessions.Login(ctx, args[0], password)
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	return a.sessions.Logout(ctx)
}

func runWhoAmI(ctx context.Context, a *app, _ []string) error {
	user, ok := a.sessions.Authenticate(ctx)
	if !ok {
		return domain.ErrNoSession
	}
	a.ui.Printf("%s\n", user.Username)
	return nil
}

func runSignUp(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return invalid("username and email are required")
	}
	password, err := a.secret(args, 2, "Password")
	if err != nil {
		return err
	}
	if len(args) < 3 {
		confirm, ok := a.ui.Prompt("Confirm Password")
		if !ok || confirm != password {
			return invalid("passwords do not match")
		}
	}
	return a.sessions.Register(ctx, args[0], password, args[1])
}

func runForgot(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return invalid("login id is required")
	}
	msg, err := a.sessions.RequestPasswordReset(ctx, args[0])
	if err != nil {
		return err
	}
	a.ui.Printf("%s\n", msg)
	return nil
}

func runReset(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return invalid("reset token is required")
	}
	password, err := a.secret(args, 1, "New Password")
	if err != nil {
		return err
	}
	return a.sessions.ResetPassword(ctx, args[0], password)
}

// --- Cabinet ---

func runIngredients(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("ingredients", a.ui.out)
	page := fs.String("page", string(domain.PageManage), "cabinet page: manage, browse or custom")
	typ := fs.String("type", "", "only show ingredients of this type")
	search := fs.String("search", "", "only show ingredients whose name or type contains this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := domain.PageContextOf(*page)
	m, err := a.loadCollection(ctx, p)
	if err != nil {
		return err
	}
	rows := m.View()
	if *typ != "" {
		t, err := domain.ParseIngredientType(*typ)
		if err != nil {
			return err
		}
		rows = m.Filter(t)
	}
	a.ui.Table(handler.NewTableModel(p, rows, *search))
	return nil
}

// pageArgs parses the shared -page flag of the mutating commands.
func pageArgs(a *app, name string, def domain.PageContext, args []string) (domain.PageContext, []string, error) {
	fs := newFlagSet(name, a.ui.out)
	page := fs.String("page", string(def), "cabinet page the change is made from")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	return domain.PageContextOf(*page), fs.Args(), nil
}

func runSetQuantity(ctx context.Context, a *app, args []string) error {
	page, rest, err := pageArgs(a, "set-qty", domain.PageManage, args)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		return invalid("usage: set-qty [-page P] <name> <quantity>")
	}
	qty, err := strconv.ParseFloat(rest[1], 64)
	if err != nil {
		return invalid("quantity %q is not a number", rest[1])
	}

	m, err := a.loadCollection(ctx, page)
	if err != nil {
		return err
	}
	return m.UpdateQuantity(rest[0], qty)
}

func runFavorite(ctx context.Context, a *app, args []string) error {
	page, rest, err := pageArgs(a, "favorite", domain.PageManage, args)
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		return invalid("usage: favorite [-page P] <name> [true|false]")
	}

	m, err := a.loadCollection(ctx, page)
	if err != nil {
		return err
	}
	if len(rest) == 1 {
		return m.ToggleFavorite(rest[0])
	}
	fav, err := strconv.ParseBool(rest[1])
	if err != nil {
		return invalid("favorite must be true or false")
	}
	return m.SetFavorite(rest[0], fav)
}

func runAddCustom(ctx context.Context, a *app, args []string) error {
	name, typ := "", ""
	if len(args) > 0 {
		name = args[0]
	} else {
		v, ok := a.ui.Prompt(PromptCustomName)
		if !ok {
			return nil
		}
		name = v
	}
	if len(args) > 1 {
		typ = args[1]
	} else {
		v, ok := a.ui.Prompt(PromptCustomType)
		if !ok {
			return nil
		}
		typ = v
	}

	m, err := a.loadCollection(ctx, domain.PageCustom)
	if err != nil {
		return err
	}
	if err := m.AddCustomIngredient(ctx, name, typ); err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) {
			return errShown
		}
		return err
	}
	a.ui.Table(handler.NewTableModel(domain.PageCustom, m.View(), ""))
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	page, rest, err := pageArgs(a, "delete", domain.PageCustom, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return invalid("usage: delete [-page custom|browse] <name>")
	}
	if page == domain.PageManage {
		return invalid("ingredients cannot be deleted from the manage page")
	}

	m, err := a.loadCollection(ctx, page)
	if err != nil {
		return err
	}
	return m.DeleteCustomIngredient(rest[0])
}

// --- Shopping list ---

func runCart(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("cart", a.ui.out)
	view := fs.Bool("view", false, "bind the shopping list view action")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *view {
		a.shopping.ViewList()
	}
	if fs.NArg() > 0 {
		m, err := a.loadCollection(ctx, domain.PageBrowse)
		if err != nil {
			return err
		}
		for _, name := range fs.Args() {
			if err := m.AddToCart(name); err != nil {
				return err
			}
		}
	}

	a.widget.Wait()
	for _, item := range a.widget.Items() {
		a.ui.Printf("- %s\n", item)
	}
	return nil
}

// --- Recipes ---

func parseFeed(s string) domain.FeedContext {
	if s == "" {
		return domain.FeedAll
	}
	return domain.FeedContext(strings.ToLower(s))
}

func runRecipes(ctx context.Context, a *app, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	feed := ""
	if len(args) > 0 {
		feed = args[0]
	}
	view, err := service.NewFeedLoader(a.backend, logger.For("recipes")).Load(ctx, parseFeed(feed))
	if err != nil {
		return err
	}
	a.ui.Feed(view)
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export", a.ui.out)
	out := fs.String("o", "cabinet.xlsx", "output file")
	feed := fs.String("feed", string(domain.FeedFilter), "recipe feed to include")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := a.loadCollection(ctx, domain.PageBrowse)
	if err != nil {
		return err
	}
	view, err := service.NewFeedLoader(a.backend, logger.For("recipes")).Load(ctx, parseFeed(*feed))
	if err != nil {
		return err
	}

	wb := export.Workbook{Ingredients: m.View(), Feed: view}
	if err := wb.SaveAs(*out); err != nil {
		return fmt.Errorf("export %s: %w", *out, err)
	}
	a.ui.Printf("wrote %s\n", *out)
	return nil
}

// --- Operations ---

func runStatus(ctx context.Context, a *app, _ []string) error {
	r := backend.NewHealthChecker(a.cfg.BackendURL, nil, a.rdb).Check(ctx)
	for _, name := range slices.Sorted(maps.Keys(r.Dependencies)) {
		dep := r.Dependencies[name]
		if dep.Error != "" {
			a.ui.Printf("%-8s %s (%s)\n", name, dep.Status, dep.Error)
			continue
		}
		a.ui.Printf("%-8s %s\n", name, dep.Status)
	}
	if !r.Healthy() {
		return errShown
	}
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("serve", a.ui.out)
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Tokens: a.tokens,
		Sessions: func(nav ports.Navigator) ports.SessionService {
			return service.NewSessionService(a.tokens, a.backend, nav, logger.For("session"))
		},
		Cabinet:    a.backend,
		Recipes:    a.backend,
		Dispatcher: a.dispatcher,
		Shopping:   a.shopping,
		Policy:     a.policy,
		Debounce:   a.cfg.SearchDebounce,
		Log:        logger.For("http"),
	})

	a.log.Info().Str("addr", *addr).Str("backend", a.cfg.BackendURL).Msg("serving cabinet")
	return serveUntilDone(ctx, *addr, e.Start, e.Shutdown)
}

func runDevServer(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("devserver", a.ui.out)
	addr := fs.String("addr", ":5000", "listen address")
	secret := fs.String("secret", "dev-secret", "token signing secret")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := devapi.New(devapi.WithSecret(*secret), devapi.WithLogger(logger.For("devapi")))
	a.log.Info().Str("addr", *addr).Str("prefix", devapi.Prefix).Msg("serving development backend")
	return serveUntilDone(ctx, *addr, srv.Start, srv.Shutdown)
}

// serveUntilDone runs start until ctx is cancelled, then shuts down.
func serveUntilDone(ctx context.Context, addr string, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return shutdown(shutdownCtx)
}
