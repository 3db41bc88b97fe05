package service

import (
	"context"
	"encoding/json"
	"testing"

	"kommand-console/internal/activity"
	"kommand-console/internal/domain"
	"kommand-console/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopAdmin = &domain.Session{UserID: 2, Name: "Ana", Role: domain.RoleAdmin, ShopID: int64Ptr(7)}

func newCatalog(api *fakeAPI, session *domain.Session, confirm Confirmer) (CatalogService, SyncService, *activity.Log) {
	log := activity.New()
	sync := NewSyncService(api, log, nil)
	sessions := staticSessions{session: session}
	resync := func(ctx context.Context) error {
		return sync.Resync(ctx, Scope{Session: sessions.Current()})
	}
	return NewCatalogService(api, sessions, resync, confirm, log, nil), sync, log
}

func TestCreateLipGlossResyncsShopSeven(t *testing.T) {
	api := seededAPI()
	catalog, sync, log := newCatalog(api, shopAdmin, nil)

	err := catalog.Create(context.Background(), ProductForm{Name: "Lip Gloss", Price: "299", Quantity: "10"})
	require.NoError(t, err)

	require.Len(t, api.payloads, 1)
	body, err := json.Marshal(api.payloads[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"price":299,`)
	assert.Contains(t, string(body), `"quantity":10,`)
	assert.Contains(t, string(body), `"shop_id":7`)

	assert.Contains(t, log.Entries()[0].Message, "Lip Gloss")
	assert.Equal(t, activity.SeveritySuccess, log.Entries()[0].Severity)

	calls := api.recorded()
	assert.Equal(t, "POST /api/products", calls[0])
	assert.ElementsMatch(t, adminEndpoints(7), calls[1:])
	assert.Equal(t, 0, api.count("GET /api/shops/8"))
	assert.NotNil(t, sync.Snapshot().Dashboard)
}

func TestUpdateSendsNoShopID(t *testing.T) {
	api := seededAPI()
	catalog, _, log := newCatalog(api, shopAdmin, nil)

	require.NoError(t, catalog.Update(context.Background(), 70, ProductForm{Name: "Lip Gloss", Price: "310", Quantity: "9"}))
	assert.Equal(t, "PUT /api/products/70", api.recorded()[0])
	assert.Nil(t, api.payloads[0].ShopID)
	assert.Equal(t, `Product "Lip Gloss" updated`, log.Entries()[0].Message)
}

func TestCreateRejectsInvalidForm(t *testing.T) {
	api := seededAPI()
	catalog, _, _ := newCatalog(api, shopAdmin, nil)

	err := catalog.Create(context.Background(), ProductForm{Name: "Lip Gloss", Price: "cheap", Quantity: "10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
	assert.Empty(t, api.recorded())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	api := seededAPI()
	var prompts []string
	answer := false
	confirm := func(prompt string) bool {
		prompts = append(prompts, prompt)
		return answer
	}
	catalog, _, log := newCatalog(api, shopAdmin, confirm)

	require.NoError(t, catalog.Delete(context.Background(), 70))
	assert.Empty(t, api.recorded(), "declining is a no-op")
	assert.Equal(t, []string{"Delete this product?"}, prompts)

	answer = true
	require.NoError(t, catalog.Delete(context.Background(), 70))
	assert.Equal(t, "DELETE /api/products/70", api.recorded()[0])
	assert.Equal(t, "Product deleted", log.Entries()[0].Message)
}

func TestMutationFailureLogsDetail(t *testing.T) {
	api := seededAPI()
	api.fail("POST /api/products", &transport.APIError{StatusCode: 409, Detail: "SKU already exists"})
	catalog, _, log := newCatalog(api, shopAdmin, nil)

	err := catalog.Create(context.Background(), ProductForm{Name: "Lip Gloss", Price: "299", Quantity: "10"})
	require.Error(t, err)
	assert.Equal(t, "Error: SKU already exists", log.Entries()[0].Message)
	assert.Equal(t, []string{"POST /api/products"}, api.recorded(), "no resync after a failed mutation")
}

func TestProductMutationsNeedShopAdmin(t *testing.T) {
	sessions := []*domain.Session{
		nil,
		{UserID: 1, Role: domain.RoleCustomer},
		{UserID: 1, Role: domain.RoleSuperAdmin},
		{UserID: 1, Role: domain.RoleAdmin},
	}

	for _, session := range sessions {
		api := seededAPI()
		catalog, _, _ := newCatalog(api, session, func(string) bool { return true })
		ctx := context.Background()
		form := ProductForm{Name: "X", Price: "1", Quantity: "1"}

		assert.ErrorIs(t, catalog.Create(ctx, form), ErrForbidden)
		assert.ErrorIs(t, catalog.Update(ctx, 1, form), ErrForbidden)
		assert.ErrorIs(t, catalog.Delete(ctx, 1), ErrForbidden)
		assert.Empty(t, api.recorded())
	}
}

func TestDeleteWithoutConfirmerIsDeclined(t *testing.T) {
	api := seededAPI()
	catalog, _, log := newCatalog(api, shopAdmin, nil)

	require.NoError(t, catalog.Delete(context.Background(), 70))
	assert.Empty(t, api.recorded())
	assert.Zero(t, log.Len())
}
