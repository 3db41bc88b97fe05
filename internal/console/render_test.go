package console

import (
	"bytes"
	"testing"

	"kommand-console/internal/activity"
	"kommand-console/internal/cart"
	"kommand-console/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$299.00", money(decimal.NewFromInt(299)))
	assert.Equal(t, "$0.50", money(decimal.RequireFromString("0.5")))
	assert.Equal(t, "-", nullMoney(decimal.NullDecimal{}))
}

func TestRenderStorefrontMarksOutOfStock(t *testing.T) {
	var out bytes.Buffer
	renderStorefront(&out, []domain.Product{
		{ID: 70, Name: "Lip Gloss", Price: decimal.NewFromInt(299), Quantity: 3, Unit: "piece"},
		{ID: 71, Name: "Blush", Price: decimal.NewFromInt(150)},
	})

	assert.Contains(t, out.String(), "3 piece")
	assert.Contains(t, out.String(), "out of stock")
}

func TestRenderCartTotals(t *testing.T) {
	c := cart.New()
	p := domain.Product{ID: 70, Name: "Lip Gloss", Price: decimal.NewFromInt(299), Quantity: 5}
	require.NoError(t, c.Add(p))
	require.NoError(t, c.Add(p))

	var out bytes.Buffer
	renderCart(&out, c)

	assert.Contains(t, out.String(), "Cart (2 items)")
	assert.Contains(t, out.String(), "$598.00")
}

func TestRenderAdminProductsMargin(t *testing.T) {
	var out bytes.Buffer
	renderAdminProducts(&out, []domain.Product{
		{ID: 1, Name: "Lip Gloss", Price: decimal.NewFromInt(150), CostPrice: decimal.NewNullDecimal(decimal.NewFromInt(100))},
		{ID: 2, Name: "Blush", Price: decimal.NewFromInt(150)},
	})

	assert.Contains(t, out.String(), "50.0%")
}

func TestRenderDashboardNotLoaded(t *testing.T) {
	var out bytes.Buffer
	renderDashboard(&out, nil, nil)
	assert.Equal(t, "Dashboard not loaded yet\n", out.String())
}

func TestRenderActivityAndStatus(t *testing.T) {
	var out bytes.Buffer
	renderActivity(&out, nil)
	assert.Equal(t, "No activity yet\n", out.String())

	out.Reset()
	renderActivity(&out, []activity.Entry{{Message: "Logged out", Severity: activity.SeverityInfo}})
	assert.Contains(t, out.String(), "Logged out")

	out.Reset()
	shopID := int64(7)
	renderStatus(&out, &domain.Session{Name: "Ana", Role: domain.RoleAdmin, ShopID: &shopID}, true)
	assert.Contains(t, out.String(), "connected")
	assert.Contains(t, out.String(), "Ana (admin) shop #7")

	out.Reset()
	renderStatus(&out, nil, false)
	assert.Contains(t, out.String(), "offline")
	assert.Contains(t, out.String(), "not signed in")
}
