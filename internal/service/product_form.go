package service

import (
	"strconv"
	"strings"

	"kommand-console/internal/domain"
	"kommand-console/internal/middleware"
	"kommand-console/internal/transport"

	"github.com/shopspring/decimal"
)

const (
	defaultMinStockLevel = 5
	defaultUnit          = "piece"
)

// ProductForm holds the product editor fields as the user typed them
type ProductForm struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	Brand          string `json:"brand"`
	SKU            string `json:"sku"`
	Price          string `json:"price" validate:"required,numeric"`
	CostPrice      string `json:"cost_price" validate:"omitempty,numeric"`
	CompareAtPrice string `json:"compare_at_price" validate:"omitempty,numeric"`
	Quantity       string `json:"quantity" validate:"required,numeric"`
	MinStockLevel  string `json:"min_stock_level" validate:"omitempty,numeric"`
	CategoryID     string `json:"category_id" validate:"omitempty,numeric"`
	Tags           string `json:"tags"`
	Unit           string `json:"unit"`
	IsFeatured     bool   `json:"is_featured"`
}

// Validate checks the form's required and numeric fields
func (f ProductForm) Validate() error {
	return middleware.ValidateRequest(f)
}

// Payload converts the form into a request body. shopID is set for creation only.
func (f ProductForm) Payload(shopID *int64) (transport.ProductPayload, error) {
	if err := f.Validate(); err != nil {
		return transport.ProductPayload{}, err
	}

	price, _ := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	payload := transport.ProductPayload{
		Name:           strings.TrimSpace(f.Name),
		Price:          price,
		ShopID:         shopID,
		Description:    optionalString(f.Description),
		Brand:          optionalString(f.Brand),
		SKU:            optionalString(f.SKU),
		CostPrice:      optionalFloat(f.CostPrice),
		CompareAtPrice: optionalFloat(f.CompareAtPrice),
		Quantity:       leadingInt(f.Quantity),
		MinStockLevel:  leadingInt(f.MinStockLevel),
		Tags:           optionalString(f.Tags),
		Unit:           strings.TrimSpace(f.Unit),
		IsFeatured:     f.IsFeatured,
	}
	if payload.MinStockLevel == 0 {
		payload.MinStockLevel = defaultMinStockLevel
	}
	if payload.Unit == "" {
		payload.Unit = defaultUnit
	}
	if id := leadingInt(f.CategoryID); id != 0 {
		categoryID := int64(id)
		payload.CategoryID = &categoryID
	}
	return payload, nil
}

// ProfitMargin is (price - cost) / cost as a percentage; false when it cannot be computed
func ProfitMargin(f ProductForm) (decimal.Decimal, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return decimal.Zero, false
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(f.CostPrice))
	if err != nil || cost.IsZero() {
		return decimal.Zero, false
	}
	return price.Sub(cost).Div(cost).Mul(decimal.NewFromInt(100)), true
}

// FormFromProduct fills the editor with an existing product
func FormFromProduct(p domain.Product) ProductForm {
	f := ProductForm{
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		SKU:           p.SKU,
		Price:         p.Price.String(),
		Quantity:      strconv.Itoa(p.Quantity),
		MinStockLevel: strconv.Itoa(p.MinStockLevel),
		Tags:          p.Tags,
		Unit:          p.Unit,
		IsFeatured:    p.IsFeatured,
	}
	if p.CostPrice.Valid {
		f.CostPrice = p.CostPrice.Decimal.String()
	}
	if p.CompareAtPrice.Valid {
		f.CompareAtPrice = p.CompareAtPrice.Decimal.String()
	}
	if p.CategoryID != nil {
		f.CategoryID = strconv.FormatInt(*p.CategoryID, 10)
	}
	return f
}

// FilterProducts keeps products whose name or brand contains query, ignoring case
func FilterProducts(products []domain.Product, query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}

	var out []domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Brand), query) {
			out = append(out, p)
		}
	}
	return out
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// leadingInt parses the integer prefix of s, so "4.5" is 4; anything else is 0
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
