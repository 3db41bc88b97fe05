package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"kommand-console/internal/domain"

	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone,omitempty"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	User        domain.Session `json:"user"`
	AccessToken string         `json:"access_token,omitempty"`
}

// ProductPayload is the body of product create and update requests
type ProductPayload struct {
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	ShopID         *int64   `json:"shop_id,omitempty"`
	Description    *string  `json:"description"`
	Brand          *string  `json:"brand"`
	SKU            *string  `json:"sku"`
	CostPrice      *float64 `json:"cost_price"`
	CompareAtPrice *float64 `json:"compare_at_price,omitempty"`
	Quantity       int      `json:"quantity"`
	MinStockLevel  int      `json:"min_stock_level"`
	CategoryID     *int64   `json:"category_id"`
	Tags           *string  `json:"tags"`
	Unit           string   `json:"unit"`
	IsFeatured     bool     `json:"is_featured"`
}

// CommandRequest is a free-text instruction for the server-side interpreter
type CommandRequest struct {
	Text string `json:"text"`
}

// CommandResult is the interpreter's reply
type CommandResult struct {
	Message string `json:"message"`
}

// ShopAction is a platform moderation action on a shop
type ShopAction string

const (
	ShopVerify   ShopAction = "verify"
	ShopSuspend  ShopAction = "suspend"
	ShopActivate ShopAction = "activate"
)

// ProductQuery narrows a shop product listing
type ProductQuery struct {
	Search          string
	IncludeInactive bool
}

// Client is the marketplace REST client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Client for baseURL
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Login authenticates against POST /api/auth/login
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account via POST /api/auth/register
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.Session, error) {
	var session domain.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ShopCategories lists shop categories with their shop counts
func (c *Client) ShopCategories(ctx context.Context) ([]domain.ShopCategory, error) {
	var out []domain.ShopCategory
	err := c.do(ctx, http.MethodGet, "/api/shop-categories/with-counts", nil, nil, &out)
	return out, err
}

// ShopsByCategory lists the shops of one category
func (c *Client) ShopsByCategory(ctx context.Context, categoryID int64) ([]domain.Shop, error) {
	var out []domain.Shop
	err := c.do(ctx, http.MethodGet, "/api/shops/by-category/"+id(categoryID), nil, nil, &out)
	return out, err
}

// ShopProducts lists a shop's products
func (c *Client) ShopProducts(ctx context.Context, shopID int64, q ProductQuery) ([]domain.Product, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.IncludeInactive {
		query.Set("include_inactive", "true")
	}

	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/shops/"+id(shopID)+"/products", query, nil, &out)
	return out, err
}

// ShopDashboard returns the aggregate stats of a shop
func (c *Client) ShopDashboard(ctx context.Context, shopID int64) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	err := c.do(ctx, http.MethodGet, "/api/shops/"+id(shopID)+"/dashboard", nil, nil, &out)
	return out, err
}

// ShopOrders lists a shop's orders
func (c *Client) ShopOrders(ctx context.Context, shopID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/api/shops/"+id(shopID)+"/orders", nil, nil, &out)
	return out, err
}

// LowStock lists a shop's products below their minimum stock level
func (c *Client) LowStock(ctx context.Context, shopID int64) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, http.MethodGet, "/api/shops/"+id(shopID)+"/low-stock", nil, nil, &out)
	return out, err
}

// Categories lists product categories
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &out)
	return out, err
}

// PlatformStats returns marketplace-wide aggregates
func (c *Client) PlatformStats(ctx context.Context) (domain.PlatformStats, error) {
	var out domain.PlatformStats
	err := c.do(ctx, http.MethodGet, "/api/platform/stats", nil, nil, &out)
	return out, err
}

// PlatformShops lists every shop with operational fields
func (c *Client) PlatformShops(ctx context.Context) ([]domain.Shop, error) {
	var out []domain.Shop
	err := c.do(ctx, http.MethodGet, "/api/platform/shops", nil, nil, &out)
	return out, err
}

// Users lists platform accounts
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &out)
	return out, err
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, payload ProductPayload) error {
	return c.do(ctx, http.MethodPost, "/api/products", nil, payload, nil)
}

// UpdateProduct replaces a product's editable fields
func (c *Client) UpdateProduct(ctx context.Context, productID int64, payload ProductPayload) error {
	return c.do(ctx, http.MethodPut, "/api/products/"+id(productID), nil, payload, nil)
}

// DeleteProduct deletes a product
func (c *Client) DeleteProduct(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+id(productID), nil, nil, nil)
}

// UpdateShopStatus applies a moderation action to a shop
func (c *Client) UpdateShopStatus(ctx context.Context, shopID int64, action ShopAction) error {
	return c.do(ctx, http.MethodPatch, "/api/platform/shops/"+id(shopID)+"/"+string(action), nil, nil, nil)
}

// Command submits free text to the server-side command interpreter
func (c *Client) Command(ctx context.Context, text string) (*CommandResult, error) {
	var out CommandResult
	if err := c.do(ctx, http.MethodPost, "/api/command", nil, CommandRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs a JSON request. Non-2xx responses become *APIError, transport and
// decoding failures become *NetworkError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	op := method + " " + path

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, data)
		c.logger.Debug("API request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
