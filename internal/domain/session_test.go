package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"customer", "admin", "super_admin"} {
		role, err := ParseRole(raw)
		require.NoError(t, err)
		assert.Equal(t, Role(raw), role)
	}

	for _, raw := range []string{"", "user", "Admin", "superadmin"} {
		_, err := ParseRole(raw)
		assert.True(t, errors.Is(err, ErrUnknownRole), "role %q should be rejected", raw)
	}
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	shopID := int64(7)

	t.Run("admin with shop", func(t *testing.T) {
		s := &Session{UserID: 1, Name: "Asha", Role: RoleAdmin, ShopID: &shopID}
		assert.NoError(t, s.Validate())
		assert.True(t, s.HasShop())
	})

	t.Run("customer with shop is rejected", func(t *testing.T) {
		s := &Session{UserID: 2, Role: RoleCustomer, ShopID: &shopID}
		assert.ErrorIs(t, s.Validate(), ErrInvalidSession)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		s := &Session{UserID: 3, Role: "owner"}
		err := s.Validate()
		assert.ErrorIs(t, err, ErrInvalidSession)
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("nil session", func(t *testing.T) {
		var s *Session
		assert.ErrorIs(t, s.Validate(), ErrInvalidSession)
		assert.False(t, s.HasShop())
	})
}

func TestSessionJSONMatchesPersistedShape(t *testing.T) {
	t.Parallel()

	raw := `{"id":4,"name":"Ravi","email":"ravi@example.com","role":"admin","shop_id":7}`

	var s Session
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	require.NotNil(t, s.ShopID)
	assert.Equal(t, int64(7), *s.ShopID)
	assert.Equal(t, RoleAdmin, s.Role)
	assert.NoError(t, s.Validate())
}

func TestTimestampLayouts(t *testing.T) {
	t.Parallel()

	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"created_at":"2024-05-01T10:20:30.123456"}`), &o))
	assert.Equal(t, 2024, o.CreatedAt.Year())
	assert.Equal(t, 30, o.CreatedAt.Second())

	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"created_at":"2024-05-01T10:20:30Z"}`), &o))
	assert.Equal(t, 10, o.CreatedAt.Hour())

	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"created_at":null}`), &o))
	assert.True(t, o.CreatedAt.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"id":4,"created_at":"yesterday"}`), &o))
}
