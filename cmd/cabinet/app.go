package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/internal/core/service"
	"github.com/sdm/cabinet-client/internal/infrastructure/backend"
	"github.com/sdm/cabinet-client/internal/infrastructure/db/redis"
	"github.com/sdm/cabinet-client/internal/infrastructure/queue"
	"github.com/sdm/cabinet-client/internal/infrastructure/shoppinglist"
	"github.com/sdm/cabinet-client/internal/infrastructure/tokenstore"
	"github.com/sdm/cabinet-client/internal/pkg/config"
	"github.com/sdm/cabinet-client/pkg/logger"
)

// app holds the wired client for the lifetime of one command.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	ui  *console

	tokens     ports.TokenStore
	rdb        *goredis.Client
	backend    *backend.Backend
	sessions   *service.SessionService
	dispatcher *queue.Dispatcher
	widget     *shoppinglist.Widget
	shopping   *service.ShoppingListBridge
	reporter   *api.ErrorReporter
	policy     service.ReconcilePolicy

	metrics *http.Server
	cancel  context.CancelFunc
}

func newApp(ctx context.Context, cfg *config.Config, ui *console, log zerolog.Logger) (*app, error) {
	tokens, rdb, err := openTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gw := backend.NewGateway(cfg.BackendURL, tokens, logger.For("gateway"), backend.WithTimeout(cfg.HTTPTimeout))
	b := backend.New(gw, service.NewTokenInspector(tokens, log), logger.For("backend"))

	ctx, cancel := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.DispatchWorkers, logger.For("dispatcher"))
	dispatcher.Start(ctx)

	widget := shoppinglist.NewWidget(logger.For("shopping_list"))
	widget.Init(ctx, cfg.WidgetInitDelay)

	a := &app{
		cfg:        cfg,
		log:        log,
		ui:         ui,
		tokens:     tokens,
		rdb:        rdb,
		backend:    b,
		sessions:   service.NewSessionService(tokens, b, ui, logger.For("session")),
		dispatcher: dispatcher,
		widget:     widget,
		shopping:   service.NewShoppingListBridge(widget, logger.For("shopping_list")),
		reporter:   api.NewErrorReporter(log),
		policy:     reconcilePolicy(cfg.ReconcilePolicy),
		cancel:     cancel,
	}

	if cfg.MetricsAddr != "" {
		a.metrics = &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server failed")
			}
		}()
	}
	return a, nil
}

func openTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, *goredis.Client, error) {
	switch cfg.Token.Store {
	case config.TokenStoreMemory:
		return tokenstore.NewMemory(""), nil, nil
	case config.TokenStoreRedis:
		store, err := redis.Open(ctx, redis.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
			Key:  cfg.Redis.TokenKey,
			TTL:  cfg.Redis.TokenTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("token store: %w", err)
		}
		return store, store.Client(), nil
	default:
		return tokenstore.NewFile(cfg.Token.File), nil, nil
	}
}

func reconcilePolicy(name string) service.ReconcilePolicy {
	if name == config.PolicyRollbackOnFailure {
		return service.RollbackOnFailure{}
	}
	return service.LastWriteWins{}
}

// requireSession fails fast when no usable token is stored, so data
// commands never start a page that would only render empty.
func (a *app) requireSession(ctx context.Context) error {
	if !a.sessions.IsTokenPresentAndWellFormed(ctx) {
		return domain.ErrNoSession
	}
	return nil
}

func (a *app) collection(page domain.PageContext) *service.CollectionManager {
	return service.NewCollectionManager(page, a.backend, a.dispatcher, logger.For("collection"),
		service.WithReconcilePolicy(a.policy),
		service.WithShoppingList(a.shopping),
		service.WithNotifier(a.ui),
	)
}

// loadCollection requires a session and loads page.
func (a *app) loadCollection(ctx context.Context, page domain.PageContext) (*service.CollectionManager, error) {
	if err := a.requireSession(ctx); err != nil {
		return nil, err
	}
	m := a.collection(page)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Close waits for background writes and queued shopping list commands
// before tearing the workers down.
func (a *app) Close() {
	a.dispatcher.Wait()
	a.widget.Wait()
	a.dispatcher.Close()
	a.cancel()

	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
