package service

import (
	"context"
	"fmt"
	"sync"

	"kommand-console/internal/domain"
	"kommand-console/internal/transport"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Scope is what a resync needs to know about the current view
type Scope struct {
	Session    *domain.Session
	OpenShopID *int64
	Search     string
}

// Snapshot is a copy of every cache, safe to render while fetches continue
type Snapshot struct {
	ShopCategories []domain.ShopCategory
	Shops          []domain.Shop
	ShopProducts   []domain.Product

	Dashboard     *domain.DashboardStats
	AdminProducts []domain.Product
	Orders        []domain.Order
	LowStock      []domain.Product
	Categories    []domain.Category

	PlatformStats *domain.PlatformStats
	PlatformShops []domain.Shop
	Users         []domain.User
}

// SyncService owns the entity caches and every fetch that fills them
type SyncService interface {
	LoadShopCategories(ctx context.Context) error
	LoadShops(ctx context.Context, categoryID int64) error
	LoadShopProducts(ctx context.Context, shopID int64, search string) error
	LoadShopAdmin(ctx context.Context, shopID int64) error
	LoadPlatform(ctx context.Context) error
	Resync(ctx context.Context, scope Scope) error
	ClearShops()
	ClearShopProducts()
	ClearRoleData()
	Snapshot() Snapshot
}

// group is a set of caches filled by one fetch or batch, versioned together
type group int

const (
	groupShopCategories group = iota
	groupShops
	groupShopProducts
	groupShopAdmin
	groupPlatform
	groupCount
)

var groupNames = [groupCount]string{"shop categories", "shops", "shop products", "shop admin", "platform"}

type syncService struct {
	api      ReadAPI
	activity Recorder
	logger   *zap.Logger

	mu          sync.Mutex
	generations [groupCount]uint64
	cache       Snapshot
}

// NewSyncService creates a new instance of SyncService
func NewSyncService(api ReadAPI, activity Recorder, logger *zap.Logger) SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &syncService{
		api:      api,
		activity: activity,
		logger:   logger,
	}
}

// begin advances the generation of g; responses tagged with an older one are dropped
func (s *syncService) begin(g group) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[g]++
	return s.generations[g]
}

// fetch runs one request and merges its result if gen is still current
func fetch[T any](ctx context.Context, s *syncService, g group, gen uint64, what string,
	get func(context.Context) (T, error), merge func(*Snapshot, T)) error {
	value, err := get(ctx)

	s.mu.Lock()
	stale := s.generations[g] != gen
	if err == nil && !stale {
		merge(&s.cache, value)
	}
	s.mu.Unlock()

	if stale {
		s.logger.Debug("Discarding stale response",
			zap.String("resource", what),
			zap.String("group", groupNames[g]),
			zap.Uint64("generation", gen),
		)
		return nil
	}
	if err != nil {
		s.logger.Warn("Fetch failed", zap.String("resource", what), zap.Error(err))
		s.activity.Error(fmt.Sprintf("Failed to load %s: %s", what, transport.DetailOr(err, "Failed")))
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
	return nil
}

// batch runs every request concurrently and combines their errors
func batch(requests ...func() error) error {
	var (
		wg   conc.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, request := range requests {
		request := request
		wg.Go(func() {
			if err := request(); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errs
}

// LoadShopCategories fetches the public category list shown to customers
func (s *syncService) LoadShopCategories(ctx context.Context) error {
	gen := s.begin(groupShopCategories)
	return fetch(ctx, s, groupShopCategories, gen, "shop categories", s.api.ShopCategories,
		func(c *Snapshot, v []domain.ShopCategory) { c.ShopCategories = v })
}

// LoadShops fetches the shops of one category
func (s *syncService) LoadShops(ctx context.Context, categoryID int64) error {
	gen := s.begin(groupShops)
	return fetch(ctx, s, groupShops, gen, "shops",
		func(ctx context.Context) ([]domain.Shop, error) { return s.api.ShopsByCategory(ctx, categoryID) },
		func(c *Snapshot, v []domain.Shop) { c.Shops = v })
}

// LoadShopProducts fetches the storefront of one shop, optionally narrowed by search
func (s *syncService) LoadShopProducts(ctx context.Context, shopID int64, search string) error {
	gen := s.begin(groupShopProducts)
	return fetch(ctx, s, groupShopProducts, gen, "products",
		func(ctx context.Context) ([]domain.Product, error) {
			return s.api.ShopProducts(ctx, shopID, transport.ProductQuery{Search: search})
		},
		func(c *Snapshot, v []domain.Product) { c.ShopProducts = v })
}

// LoadShopAdmin runs the shop admin's eager batch; each slice merges on its own
func (s *syncService) LoadShopAdmin(ctx context.Context, shopID int64) error {
	g := groupShopAdmin
	gen := s.begin(g)
	s.logger.Debug("Loading shop admin data", zap.Int64("shop_id", shopID), zap.Uint64("generation", gen))

	return batch(
		func() error {
			return fetch(ctx, s, g, gen, "dashboard",
				func(ctx context.Context) (domain.DashboardStats, error) { return s.api.ShopDashboard(ctx, shopID) },
				func(c *Snapshot, v domain.DashboardStats) { c.Dashboard = &v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "products",
				func(ctx context.Context) ([]domain.Product, error) {
					return s.api.ShopProducts(ctx, shopID, transport.ProductQuery{IncludeInactive: true})
				},
				func(c *Snapshot, v []domain.Product) { c.AdminProducts = v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "orders",
				func(ctx context.Context) ([]domain.Order, error) { return s.api.ShopOrders(ctx, shopID) },
				func(c *Snapshot, v []domain.Order) { c.Orders = v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "low stock",
				func(ctx context.Context) ([]domain.Product, error) { return s.api.LowStock(ctx, shopID) },
				func(c *Snapshot, v []domain.Product) { c.LowStock = v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "categories", s.api.Categories,
				func(c *Snapshot, v []domain.Category) { c.Categories = v })
		},
	)
}

// LoadPlatform runs the super admin's eager batch
func (s *syncService) LoadPlatform(ctx context.Context) error {
	g := groupPlatform
	gen := s.begin(g)

	return batch(
		func() error {
			return fetch(ctx, s, g, gen, "platform stats", s.api.PlatformStats,
				func(c *Snapshot, v domain.PlatformStats) { c.PlatformStats = &v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "shops", s.api.PlatformShops,
				func(c *Snapshot, v []domain.Shop) { c.PlatformShops = v })
		},
		func() error {
			return fetch(ctx, s, g, gen, "users", s.api.Users,
				func(c *Snapshot, v []domain.User) { c.Users = v })
		},
	)
}

// Resync re-runs the fetches the current view depends on
func (s *syncService) Resync(ctx context.Context, scope Scope) error {
	session := scope.Session
	if session == nil {
		return nil
	}

	switch session.Role {
	case domain.RoleSuperAdmin:
		return s.LoadPlatform(ctx)
	case domain.RoleAdmin:
		if session.ShopID == nil {
			return nil
		}
		return s.LoadShopAdmin(ctx, *session.ShopID)
	case domain.RoleCustomer:
		if scope.OpenShopID == nil {
			return nil
		}
		return s.LoadShopProducts(ctx, *scope.OpenShopID, scope.Search)
	default:
		return fmt.Errorf("failed to resync: %w: %q", domain.ErrUnknownRole, session.Role)
	}
}

// ClearShops empties the category's shop list and drops in-flight responses for it
func (s *syncService) ClearShops() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[groupShops]++
	s.cache.Shops = nil
}

// ClearShopProducts empties the open shop's products and drops in-flight responses for it
func (s *syncService) ClearShopProducts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[groupShopProducts]++
	s.cache.ShopProducts = nil
}

// ClearRoleData discards everything except the public shop categories
func (s *syncService) ClearRoleData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for g := group(0); g < groupCount; g++ {
		if g != groupShopCategories {
			s.generations[g]++
		}
	}
	s.cache = Snapshot{ShopCategories: s.cache.ShopCategories}
}

// Snapshot returns a copy of every cache
func (s *syncService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cache
	out := Snapshot{
		ShopCategories: append([]domain.ShopCategory(nil), c.ShopCategories...),
		Shops:          append([]domain.Shop(nil), c.Shops...),
		ShopProducts:   append([]domain.Product(nil), c.ShopProducts...),
		AdminProducts:  append([]domain.Product(nil), c.AdminProducts...),
		Orders:         append([]domain.Order(nil), c.Orders...),
		LowStock:       append([]domain.Product(nil), c.LowStock...),
		Categories:     append([]domain.Category(nil), c.Categories...),
		PlatformShops:  append([]domain.Shop(nil), c.PlatformShops...),
		Users:          append([]domain.User(nil), c.Users...),
	}
	if c.Dashboard != nil {
		dashboard := *c.Dashboard
		out.Dashboard = &dashboard
	}
	if c.PlatformStats != nil {
		stats := *c.PlatformStats
		out.PlatformStats = &stats
	}
	return out
}
