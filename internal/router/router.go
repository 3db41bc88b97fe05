package router

import (
	"context"
	"errors"
	"fmt"

	"kommand-console/internal/domain"
	"kommand-console/internal/service"

	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownTab        = errors.New("unknown tab")
)

// Mode is the top-level view, chosen solely by the session role
type Mode int

const (
	ModeUnauthenticated Mode = iota
	ModeSuperAdmin
	ModeShopAdmin
	ModeCustomer
)

func (m Mode) String() string {
	switch m {
	case ModeSuperAdmin:
		return "super_admin"
	case ModeShopAdmin:
		return "shop_admin"
	case ModeCustomer:
		return "customer"
	default:
		return "unauthenticated"
	}
}

// Tab selects a panel inside the admin views
type Tab string

const (
	TabOverview   Tab = "overview"
	TabShops      Tab = "shops"
	TabUsers      Tab = "users"
	TabCategories Tab = "categories"

	TabDashboard Tab = "dashboard"
	TabProducts  Tab = "products"
	TabOrders    Tab = "orders"
)

// Tabs returns the tabs available in mode, in display order
func Tabs(mode Mode) []Tab {
	switch mode {
	case ModeSuperAdmin:
		return []Tab{TabOverview, TabShops, TabUsers, TabCategories}
	case ModeShopAdmin:
		return []Tab{TabDashboard, TabProducts, TabOrders}
	default:
		return nil
	}
}

// Stage is the customer's drill-down depth
type Stage int

const (
	StageCategories Stage = iota
	StageShopsInCategory
	StageProductsInShop
)

// State is the router's current position. CategoryID is set from
// StageShopsInCategory down, ShopID only in StageProductsInShop.
type State struct {
	Mode       Mode
	Tab        Tab
	Stage      Stage
	CategoryID int64
	ShopID     int64
	Search     string
}

// Fetcher is the part of the sync layer the router drives
type Fetcher interface {
	LoadShops(ctx context.Context, categoryID int64) error
	LoadShopProducts(ctx context.Context, shopID int64, search string) error
	LoadShopAdmin(ctx context.Context, shopID int64) error
	LoadPlatform(ctx context.Context) error
	ClearShops()
	ClearShopProducts()
	ClearRoleData()
}

// Sessions is the session store as seen by the router
type Sessions interface {
	Current() *domain.Session
	Logout(ctx context.Context) error
}

// Router is the role and drill-down navigation state machine. It is owned by a
// single goroutine and is not safe for concurrent use.
type Router struct {
	state    State
	fetcher  Fetcher
	sessions Sessions
	logger   *zap.Logger
}

// New creates a Router in the unauthenticated state
func New(fetcher Fetcher, sessions Sessions, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		fetcher:  fetcher,
		sessions: sessions,
		logger:   logger,
	}
}

// State returns the current state
func (r *Router) State() State {
	return r.state
}

// Scope describes the current view for a resync
func (r *Router) Scope() service.Scope {
	scope := service.Scope{Session: r.sessions.Current()}
	if r.state.Mode == ModeCustomer && r.state.Stage == StageProductsInShop {
		shopID := r.state.ShopID
		scope.OpenShopID = &shopID
		scope.Search = r.state.Search
	}
	return scope
}

// Enter moves from Unauthenticated into the view for the session's role and
// starts the role's eager fetch
func (r *Router) Enter(ctx context.Context, session *domain.Session) error {
	if r.state.Mode != ModeUnauthenticated {
		return fmt.Errorf("%w: already in %s view", ErrInvalidTransition, r.state.Mode)
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("failed to enter view: %w", err)
	}

	switch session.Role {
	case domain.RoleCustomer:
		r.state = State{Mode: ModeCustomer, Stage: StageCategories}
	case domain.RoleAdmin:
		r.state = State{Mode: ModeShopAdmin, Tab: TabDashboard}
		if session.ShopID != nil {
			r.fetched("shop admin", r.fetcher.LoadShopAdmin(ctx, *session.ShopID))
		}
	case domain.RoleSuperAdmin:
		r.state = State{Mode: ModeSuperAdmin, Tab: TabOverview}
		r.fetched("platform", r.fetcher.LoadPlatform(ctx))
	default:
		return fmt.Errorf("failed to enter view: %w: %q", domain.ErrUnknownRole, session.Role)
	}

	r.logger.Info("Entered view", zap.String("mode", r.state.Mode.String()))
	return nil
}

// Logout returns to Unauthenticated from any state and discards role data.
// The session is cleared first so a concurrent resync cannot refill role caches.
func (r *Router) Logout(ctx context.Context) error {
	r.state = State{}
	err := r.sessions.Logout(ctx)
	r.fetcher.ClearRoleData()
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// SetTab switches panels within an admin view; it never fetches
func (r *Router) SetTab(tab Tab) error {
	tabs := Tabs(r.state.Mode)
	if tabs == nil {
		return fmt.Errorf("%w: no tabs in %s view", ErrInvalidTransition, r.state.Mode)
	}
	for _, t := range tabs {
		if t == tab {
			r.state.Tab = tab
			return nil
		}
	}
	return fmt.Errorf("%w: %q in %s view", ErrUnknownTab, tab, r.state.Mode)
}

// SelectCategory opens a category's shop list
func (r *Router) SelectCategory(ctx context.Context, categoryID int64) error {
	if err := r.require(StageCategories); err != nil {
		return err
	}
	r.state.Stage = StageShopsInCategory
	r.state.CategoryID = categoryID

	r.fetched("shops", r.fetcher.LoadShops(ctx, categoryID))
	return nil
}

// SelectShop opens a shop's storefront
func (r *Router) SelectShop(ctx context.Context, shopID int64) error {
	if err := r.require(StageShopsInCategory); err != nil {
		return err
	}
	r.state.Stage = StageProductsInShop
	r.state.ShopID = shopID
	r.state.Search = ""

	r.fetched("products", r.fetcher.LoadShopProducts(ctx, shopID, ""))
	return nil
}

// Search narrows the open shop's products on the server
func (r *Router) Search(ctx context.Context, query string) error {
	if err := r.require(StageProductsInShop); err != nil {
		return err
	}
	r.state.Search = query

	r.fetched("products", r.fetcher.LoadShopProducts(ctx, r.state.ShopID, query))
	return nil
}

// Back moves one customer stage up; at the top it does nothing
func (r *Router) Back(ctx context.Context) error {
	if r.state.Mode != ModeCustomer {
		return fmt.Errorf("%w: back outside customer view", ErrInvalidTransition)
	}

	switch r.state.Stage {
	case StageShopsInCategory:
		r.state = State{Mode: ModeCustomer, Stage: StageCategories}
		r.fetcher.ClearShops()
	case StageProductsInShop:
		r.state = State{Mode: ModeCustomer, Stage: StageShopsInCategory, CategoryID: r.state.CategoryID}
		r.fetcher.ClearShopProducts()
	}
	return nil
}

func (r *Router) require(stage Stage) error {
	if r.state.Mode != ModeCustomer || r.state.Stage != stage {
		return fmt.Errorf("%w: from %s view stage %d", ErrInvalidTransition, r.state.Mode, r.state.Stage)
	}
	return nil
}

// fetched records a fetch failure; the sync layer already reported it to the user
func (r *Router) fetched(what string, err error) {
	if err != nil {
		r.logger.Warn("Fetch after transition failed", zap.String("resource", what), zap.Error(err))
	}
}
