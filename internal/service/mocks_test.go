package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kommand-console/internal/domain"
	"kommand-console/internal/repository"
	"kommand-console/internal/transport"
)

// fakeAPI implements every consumer-side API interface. Calls are recorded as
// "METHOD path" lines; errs and gates are keyed by the same lines.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
	gates map[string]chan struct{}

	loginResp    *transport.LoginResponse
	registerResp *domain.Session

	shopCategories []domain.ShopCategory
	shops          map[int64][]domain.Shop
	products       map[int64][]domain.Product
	dashboard      domain.DashboardStats
	orders         []domain.Order
	lowStock       []domain.Product
	categories     []domain.Category
	platformStats  domain.PlatformStats
	platformShops  []domain.Shop
	users          []domain.User

	payloads      []transport.ProductPayload
	commandResult *transport.CommandResult
	queries       []transport.ProductQuery
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		shops:    make(map[int64][]domain.Shop),
		products: make(map[int64][]domain.Product),
	}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	err := f.errs[call]
	gate := f.gates[call]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

// gate blocks the next calls matching call until the returned func is invoked
func (f *fakeAPI) gate(call string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[call] = ch
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.gates, call)
		f.mu.Unlock()
		close(ch)
	}
}

func (f *fakeAPI) fail(call string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[call] = err
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, call := range f.recorded() {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeAPI) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	if err := f.record("POST /api/auth/login"); err != nil {
		return nil, err
	}
	return f.loginResp, nil
}

func (f *fakeAPI) Register(ctx context.Context, req transport.RegisterRequest) (*domain.Session, error) {
	if err := f.record("POST /api/auth/register"); err != nil {
		return nil, err
	}
	return f.registerResp, nil
}

func (f *fakeAPI) ShopCategories(ctx context.Context) ([]domain.ShopCategory, error) {
	if err := f.record("GET /api/shop-categories/with-counts"); err != nil {
		return nil, err
	}
	return f.shopCategories, nil
}

func (f *fakeAPI) ShopsByCategory(ctx context.Context, categoryID int64) ([]domain.Shop, error) {
	if err := f.record(fmt.Sprintf("GET /api/shops/by-category/%d", categoryID)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shops[categoryID], nil
}

func (f *fakeAPI) ShopProducts(ctx context.Context, shopID int64, q transport.ProductQuery) ([]domain.Product, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if err := f.record(fmt.Sprintf("GET /api/shops/%d/products", shopID)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[shopID], nil
}

func (f *fakeAPI) ShopDashboard(ctx context.Context, shopID int64) (domain.DashboardStats, error) {
	if err := f.record(fmt.Sprintf("GET /api/shops/%d/dashboard", shopID)); err != nil {
		return domain.DashboardStats{}, err
	}
	return f.dashboard, nil
}

func (f *fakeAPI) ShopOrders(ctx context.Context, shopID int64) ([]domain.Order, error) {
	if err := f.record(fmt.Sprintf("GET /api/shops/%d/orders", shopID)); err != nil {
		return nil, err
	}
	return f.orders, nil
}

func (f *fakeAPI) LowStock(ctx context.Context, shopID int64) ([]domain.Product, error) {
	if err := f.record(fmt.Sprintf("GET /api/shops/%d/low-stock", shopID)); err != nil {
		return nil, err
	}
	return f.lowStock, nil
}

func (f *fakeAPI) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := f.record("GET /api/categories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeAPI) PlatformStats(ctx context.Context) (domain.PlatformStats, error) {
	if err := f.record("GET /api/platform/stats"); err != nil {
		return domain.PlatformStats{}, err
	}
	return f.platformStats, nil
}

func (f *fakeAPI) PlatformShops(ctx context.Context) ([]domain.Shop, error) {
	if err := f.record("GET /api/platform/shops"); err != nil {
		return nil, err
	}
	return f.platformShops, nil
}

func (f *fakeAPI) Users(ctx context.Context) ([]domain.User, error) {
	if err := f.record("GET /api/users"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeAPI) CreateProduct(ctx context.Context, payload transport.ProductPayload) error {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return f.record("POST /api/products")
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, productID int64, payload transport.ProductPayload) error {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	return f.record(fmt.Sprintf("PUT /api/products/%d", productID))
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, productID int64) error {
	return f.record(fmt.Sprintf("DELETE /api/products/%d", productID))
}

func (f *fakeAPI) UpdateShopStatus(ctx context.Context, shopID int64, action transport.ShopAction) error {
	return f.record(fmt.Sprintf("PATCH /api/platform/shops/%d/%s", shopID, action))
}

func (f *fakeAPI) Command(ctx context.Context, text string) (*transport.CommandResult, error) {
	if err := f.record("POST /api/command"); err != nil {
		return nil, err
	}
	return f.commandResult, nil
}

// memSessionRepository is an in-memory SessionRepository
type memSessionRepository struct {
	mu      sync.Mutex
	session *domain.Session
	loadErr error
	saveErr error
	deletes int
	onSave  func(*domain.Session)
}

func (m *memSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if m.onSave != nil {
		m.onSave(session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *session
	m.session = &copied
	return nil
}

func (m *memSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.session == nil {
		return nil, repository.ErrSessionNotFound
	}
	copied := *m.session
	return &copied, nil
}

func (m *memSessionRepository) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.session = nil
	m.loadErr = nil
	return nil
}

// staticSessions is a SessionProvider returning a fixed session
type staticSessions struct {
	session *domain.Session
}

func (s staticSessions) Current() *domain.Session {
	return s.session
}

func int64Ptr(v int64) *int64 { return &v }

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
