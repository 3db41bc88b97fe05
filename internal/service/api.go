package service

import (
	"context"

	"kommand-console/internal/domain"
	"kommand-console/internal/transport"
)

// AuthAPI is the part of the marketplace API used to sign in
type AuthAPI interface {
	Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error)
	Register(ctx context.Context, req transport.RegisterRequest) (*domain.Session, error)
}

// ReadAPI is every listing the console renders
type ReadAPI interface {
	ShopCategories(ctx context.Context) ([]domain.ShopCategory, error)
	ShopsByCategory(ctx context.Context, categoryID int64) ([]domain.Shop, error)
	ShopProducts(ctx context.Context, shopID int64, q transport.ProductQuery) ([]domain.Product, error)
	ShopDashboard(ctx context.Context, shopID int64) (domain.DashboardStats, error)
	ShopOrders(ctx context.Context, shopID int64) ([]domain.Order, error)
	LowStock(ctx context.Context, shopID int64) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	PlatformStats(ctx context.Context) (domain.PlatformStats, error)
	PlatformShops(ctx context.Context) ([]domain.Shop, error)
	Users(ctx context.Context) ([]domain.User, error)
}

// ProductAPI is the shop admin's catalog write surface
type ProductAPI interface {
	CreateProduct(ctx context.Context, payload transport.ProductPayload) error
	UpdateProduct(ctx context.Context, productID int64, payload transport.ProductPayload) error
	DeleteProduct(ctx context.Context, productID int64) error
}

// ShopModerationAPI is the super admin's write surface
type ShopModerationAPI interface {
	UpdateShopStatus(ctx context.Context, shopID int64, action transport.ShopAction) error
}

// CommandAPI forwards free text to the server-side interpreter
type CommandAPI interface {
	Command(ctx context.Context, text string) (*transport.CommandResult, error)
}

// Recorder receives user-visible activity entries
type Recorder interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// SessionProvider exposes the signed-in session, nil when signed out
type SessionProvider interface {
	Current() *domain.Session
}

// ResyncFunc re-fetches whatever the current view shows
type ResyncFunc func(ctx context.Context) error

// Confirmer asks the user a yes/no question before a destructive action
type Confirmer func(prompt string) bool

// confirmed treats a missing Confirmer as a decline
func confirmed(confirm Confirmer, prompt string) bool {
	return confirm != nil && confirm(prompt)
}
