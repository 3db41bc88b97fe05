package domain

import (
	"errors"
	"fmt"
)

// Role is the closed set of identities a console session can carry
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrInvalidSession = errors.New("invalid session")
)

// ParseRole converts a raw role value into a Role, rejecting anything outside the closed set
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Session represents the authenticated identity of the console user
type Session struct {
	UserID      int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"role"`
	ShopID      *int64 `json:"shop_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Validate checks the session invariants: a known role, and a shop id only for shop admins
func (s *Session) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if !s.Role.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSession, ErrUnknownRole, s.Role)
	}
	if s.ShopID != nil && s.Role != RoleAdmin {
		return fmt.Errorf("%w: shop id is only valid for %s", ErrInvalidSession, RoleAdmin)
	}
	return nil
}

// HasShop reports whether the session is bound to a shop
func (s *Session) HasShop() bool {
	return s != nil && s.ShopID != nil
}
