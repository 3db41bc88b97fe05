package domain

import (
	"github.com/shopspring/decimal"
)

// Order is a read-only view of a customer order. Status is defined by the server.
type Order struct {
	ID           int64           `json:"id"`
	ShopID       int64           `json:"shop_id"`
	CustomerName string          `json:"customer_name"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    Timestamp       `json:"created_at"`
}

// DashboardStats is the per-shop aggregate snapshot
type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalProducts  int             `json:"total_products"`
	TotalOrders    int             `json:"total_orders"`
	PendingOrders  int             `json:"pending_orders"`
	LowStockCount  int             `json:"low_stock_count"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

// PlatformStats is the marketplace-wide aggregate snapshot
type PlatformStats struct {
	TotalShops      int             `json:"total_shops"`
	VerifiedShops   int             `json:"verified_shops"`
	TotalShopOwners int             `json:"total_shop_owners"`
	TotalCustomers  int             `json:"total_customers"`
	TotalUsers      int             `json:"total_users"`
	PlatformRevenue decimal.Decimal `json:"platform_revenue"`
}

// User is a platform account as listed to super admins
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}
