package service

import (
	"context"
	"testing"

	"kommand-console/internal/activity"
	"kommand-console/internal/domain"
	"kommand-console/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var superAdmin = &domain.Session{UserID: 1, Name: "Root", Role: domain.RoleSuperAdmin}

func newPlatform(api *fakeAPI, session *domain.Session, confirm Confirmer) (PlatformService, *activity.Log) {
	log := activity.New()
	sync := NewSyncService(api, log, nil)
	sessions := staticSessions{session: session}
	resync := func(ctx context.Context) error {
		return sync.Resync(ctx, Scope{Session: sessions.Current()})
	}
	return NewPlatformService(api, sessions, resync, confirm, log, nil), log
}

func TestShopActions(t *testing.T) {
	tests := []struct {
		name string
		run  func(PlatformService) error
		call string
		log  string
	}{
		{"verify", func(s PlatformService) error { return s.Verify(context.Background(), 7) }, "PATCH /api/platform/shops/7/verify", "Shop verified"},
		{"suspend", func(s PlatformService) error { return s.Suspend(context.Background(), 7) }, "PATCH /api/platform/shops/7/suspend", "Shop suspended"},
		{"activate", func(s PlatformService) error { return s.Activate(context.Background(), 7) }, "PATCH /api/platform/shops/7/activate", "Shop activated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := seededAPI()
			svc, log := newPlatform(api, superAdmin, func(string) bool { return true })

			require.NoError(t, tt.run(svc))

			calls := api.recorded()
			assert.Equal(t, tt.call, calls[0])
			assert.ElementsMatch(t, []string{"GET /api/platform/stats", "GET /api/platform/shops", "GET /api/users"}, calls[1:])
			assert.Equal(t, tt.log, log.Entries()[0].Message)
		})
	}
}

func TestSuspendDeclined(t *testing.T) {
	api := seededAPI()
	var prompt string
	svc, log := newPlatform(api, superAdmin, func(p string) bool { prompt = p; return false })

	require.NoError(t, svc.Suspend(context.Background(), 7))
	assert.Equal(t, "Suspend this shop?", prompt)
	assert.Empty(t, api.recorded())
	assert.Zero(t, log.Len())
}

func TestShopActionFailure(t *testing.T) {
	api := seededAPI()
	api.fail("PATCH /api/platform/shops/7/verify", &transport.APIError{StatusCode: 404, Detail: "Shop not found"})
	svc, log := newPlatform(api, superAdmin, nil)

	require.Error(t, svc.Verify(context.Background(), 7))
	assert.Equal(t, "Error: Shop not found", log.Entries()[0].Message)
	assert.Len(t, api.recorded(), 1)
}

func TestShopActionsNeedSuperAdmin(t *testing.T) {
	api := seededAPI()
	svc, _ := newPlatform(api, shopAdmin, func(string) bool { return true })
	ctx := context.Background()

	assert.ErrorIs(t, svc.Verify(ctx, 7), ErrForbidden)
	assert.ErrorIs(t, svc.Suspend(ctx, 7), ErrForbidden)
	assert.ErrorIs(t, svc.Activate(ctx, 7), ErrForbidden)
	assert.Empty(t, api.recorded())
}

func TestSuspendWithoutConfirmerIsDeclined(t *testing.T) {
	api := seededAPI()
	svc, log := newPlatform(api, superAdmin, nil)

	require.NoError(t, svc.Suspend(context.Background(), 7))
	assert.Empty(t, api.recorded())
	assert.Zero(t, log.Len())

	// actions without a confirmation step are unaffected
	require.NoError(t, svc.Activate(context.Background(), 7))
	assert.Equal(t, "PATCH /api/platform/shops/7/activate", api.recorded()[0])
}

// countingSessions counts session lookups
type countingSessions struct {
	session *domain.Session
	reads   int
}

func (s *countingSessions) Current() *domain.Session {
	s.reads++
	return s.session
}

func TestShopActionsAuthorizeOnce(t *testing.T) {
	for name, run := range map[string]func(PlatformService) error{
		"verify":   func(s PlatformService) error { return s.Verify(context.Background(), 7) },
		"suspend":  func(s PlatformService) error { return s.Suspend(context.Background(), 7) },
		"activate": func(s PlatformService) error { return s.Activate(context.Background(), 7) },
	} {
		t.Run(name, func(t *testing.T) {
			sessions := &countingSessions{session: superAdmin}
			svc := NewPlatformService(seededAPI(), sessions, nil, func(string) bool { return true }, activity.New(), nil)

			require.NoError(t, run(svc))
			assert.Equal(t, 1, sessions.reads)
		})
	}
}
