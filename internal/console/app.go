package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kommand-console/internal/activity"
	"kommand-console/internal/cart"
	"kommand-console/internal/config"
	"kommand-console/internal/database"
	"kommand-console/internal/domain"
	"kommand-console/internal/middleware"
	"kommand-console/internal/repository"
	"kommand-console/internal/router"
	"kommand-console/internal/service"
	"kommand-console/internal/transport"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrProductNotListed = errors.New("product is not in the current listing")

// App wires the console's components together. Navigation and cart methods
// must be called from a single goroutine; push events arrive on another.
type App struct {
	config   *config.Config
	logger   *zap.Logger
	activity *activity.Log

	sessions service.SessionService
	sync     service.SyncService
	commands service.CommandService
	catalog  service.CatalogService
	platform service.PlatformService
	router   *router.Router
	cart     *cart.Cart
	push     *transport.PushManager

	confirm service.Confirmer
	closers []func() error

	scopeMu sync.Mutex
	scope   service.Scope
}

// Option configures an App
type Option func(*options)

type options struct {
	repo       repository.SessionRepository
	httpClient *http.Client
	pushOpts   []transport.PushOption
}

// WithSessionRepository overrides the configured session backend
func WithSessionRepository(repo repository.SessionRepository) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithHTTPClient overrides the HTTP client used for the REST API
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithPushOptions passes options through to the push channel
func WithPushOptions(opts ...transport.PushOption) Option {
	return func(o *options) {
		o.pushOpts = append(o.pushOpts, opts...)
	}
}

// NewApp builds every component from cfg
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{
		config: cfg,
		logger: logger,
		activity: activity.New(
			activity.WithLogger(logger.Named("activity")),
		),
		cart: cart.New(),
	}

	repo := o.repo
	if repo == nil {
		var err error
		repo, err = a.openSessionRepository(ctx)
		if err != nil {
			return nil, err
		}
	}

	// The token source is resolved per request, after sessions exists
	tokens := func() string {
		if a.sessions == nil {
			return ""
		}
		return a.sessions.Token()
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}
	httpClient.Transport = middleware.Chain(httpClient.Transport,
		middleware.DefaultMiddlewareStack(tokens, logger.Named("http"))...)

	api := transport.NewClient(cfg.API.BaseURL, httpClient, logger.Named("api"))

	a.sessions = service.NewSessionService(api, repo, logger.Named("session"))
	a.sync = service.NewSyncService(api, a.activity, logger.Named("sync"))
	a.router = router.New(a.sync, a.sessions, logger.Named("router"))
	a.commands = service.NewCommandService(api, a.Resync, a.activity, logger.Named("command"))
	a.catalog = service.NewCatalogService(api, a.sessions, a.Resync, a.confirmAction, a.activity, logger.Named("catalog"))
	a.platform = service.NewPlatformService(api, a.sessions, a.Resync, a.confirmAction, a.activity, logger.Named("platform"))

	pushURL, err := cfg.PushURL()
	if err != nil {
		return nil, fmt.Errorf("failed to derive push url: %w", err)
	}
	a.push = transport.NewPushManager(pushURL, cfg.Push.ReconnectDelay, a.handlePush, a.activity,
		logger.Named("push"), o.pushOpts...)

	return a, nil
}

func (a *App) openSessionRepository(ctx context.Context) (repository.SessionRepository, error) {
	switch a.config.State.Backend {
	case config.BackendFile, "":
		return repository.NewFileSessionRepository(a.config.State.File), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.RedisAddr(),
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return repository.NewRedisSessionRepository(client, ""), nil

	case config.BackendPostgres:
		db, err := database.Open(ctx, a.config.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, a.logger.Named("migrations")); err != nil {
			db.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return repository.NewPostgresSessionRepository(db), nil

	default:
		return nil, fmt.Errorf("unknown state backend %q", a.config.State.Backend)
	}
}

// Start opens the push channel, loads the public catalog and resumes a saved session.
// A session backend failure leaves the console signed out rather than failing.
func (a *App) Start(ctx context.Context) error {
	a.push.Start(ctx)

	if err := a.sync.LoadShopCategories(ctx); err != nil {
		a.logger.Warn("Shop categories unavailable at startup", zap.Error(err))
	}

	session, err := a.sessions.Restore(ctx)
	if err != nil {
		a.logger.Warn("Saved session unavailable, starting signed out", zap.Error(err))
		return nil
	}
	if session == nil {
		return nil
	}
	a.logger.Info("Resumed session", zap.Int64("user_id", session.UserID))
	return a.enter(ctx, session)
}

// Close stops the push channel and releases the session backend
func (a *App) Close() error {
	a.logger.Info("Closing console resources")

	err := a.push.Close()
	for _, closer := range a.closers {
		if cerr := closer(); cerr != nil {
			a.logger.Error("Failed to close resource", zap.Error(cerr))
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// SetConfirmer installs the prompt used before destructive actions
func (a *App) SetConfirmer(confirm service.Confirmer) {
	a.confirm = confirm
}

func (a *App) confirmAction(prompt string) bool {
	if a.confirm == nil {
		return false
	}
	return a.confirm(prompt)
}

// Login signs in and enters the role's view
func (a *App) Login(ctx context.Context, email, password string) error {
	session, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.activity.Success(fmt.Sprintf("Welcome, %s!", session.Name))
	return a.enter(ctx, session)
}

// Register creates an account and enters the role's view
func (a *App) Register(ctx context.Context, req transport.RegisterRequest) error {
	session, err := a.sessions.Register(ctx, req)
	if err != nil {
		return err
	}
	a.activity.Success(fmt.Sprintf("Welcome, %s!", session.Name))
	return a.enter(ctx, session)
}

func (a *App) enter(ctx context.Context, session *domain.Session) error {
	defer a.publishScope()
	return a.router.Enter(ctx, session)
}

// Logout signs out, empties the cart and returns to the login prompt
func (a *App) Logout(ctx context.Context) error {
	defer a.publishScope()
	a.cart.Clear()
	if err := a.router.Logout(ctx); err != nil {
		return err
	}
	a.activity.Info("Logged out")
	return nil
}

// SelectCategory opens a category's shops
func (a *App) SelectCategory(ctx context.Context, categoryID int64) error {
	defer a.publishScope()
	return a.router.SelectCategory(ctx, categoryID)
}

// SelectShop opens a shop's storefront
func (a *App) SelectShop(ctx context.Context, shopID int64) error {
	defer a.publishScope()
	return a.router.SelectShop(ctx, shopID)
}

// Search narrows the open shop's products
func (a *App) Search(ctx context.Context, query string) error {
	defer a.publishScope()
	return a.router.Search(ctx, query)
}

// Back moves one customer stage up
func (a *App) Back(ctx context.Context) error {
	defer a.publishScope()
	return a.router.Back(ctx)
}

// SetTab switches admin panels
func (a *App) SetTab(tab router.Tab) error {
	return a.router.SetTab(tab)
}

// AddToCart adds one unit of a product from the open storefront
func (a *App) AddToCart(productID int64) error {
	product, ok := findProduct(a.sync.Snapshot().ShopProducts, productID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrProductNotListed, productID)
	}
	if err := a.cart.Add(product); err != nil {
		return err
	}
	a.activity.Success(fmt.Sprintf("Added %s to cart", product.Name))
	return nil
}

// RemoveFromCart drops a cart line
func (a *App) RemoveFromCart(productID int64) bool {
	return a.cart.Remove(productID)
}

// Submit sends a natural-language command
func (a *App) Submit(ctx context.Context, text string) error {
	return a.commands.Submit(ctx, text)
}

// Resync re-fetches whatever the current view shows
func (a *App) Resync(ctx context.Context) error {
	return a.sync.Resync(ctx, a.currentScope())
}

// publishScope makes the router's position visible to the push goroutine
func (a *App) publishScope() {
	scope := a.router.Scope()
	a.scopeMu.Lock()
	a.scope = scope
	a.scopeMu.Unlock()
}

func (a *App) currentScope() service.Scope {
	a.scopeMu.Lock()
	scope := a.scope
	a.scopeMu.Unlock()
	scope.Session = a.sessions.Current()
	return scope
}

func (a *App) handlePush(event transport.Event) {
	a.logger.Debug("Push event", zap.String("type", event.Type))

	timeout := a.config.API.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.Resync(ctx); err != nil {
		a.logger.Warn("Resync after push event failed", zap.Error(err))
	}
}

func (a *App) Session() *domain.Session          { return a.sessions.Current() }
func (a *App) State() router.State               { return a.router.State() }
func (a *App) Snapshot() service.Snapshot        { return a.sync.Snapshot() }
func (a *App) Cart() *cart.Cart                  { return a.cart }
func (a *App) Activity() *activity.Log           { return a.activity }
func (a *App) Catalog() service.CatalogService   { return a.catalog }
func (a *App) Platform() service.PlatformService { return a.platform }
func (a *App) Connected() bool                   { return a.push.Connected() }

func findProduct(products []domain.Product, id int64) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
