package service

import (
	"context"
	"fmt"

	"kommand-console/internal/domain"
	"kommand-console/internal/transport"

	"go.uber.org/zap"
)

const suspendShopPrompt = "Suspend this shop?"

// PlatformService defines the super admin's shop moderation actions
type PlatformService interface {
	Verify(ctx context.Context, shopID int64) error
	Suspend(ctx context.Context, shopID int64) error
	Activate(ctx context.Context, shopID int64) error
}

type platformService struct {
	api      ShopModerationAPI
	sessions SessionProvider
	resync   ResyncFunc
	confirm  Confirmer
	activity Recorder
	logger   *zap.Logger
}

// NewPlatformService creates a new instance of PlatformService
func NewPlatformService(
	api ShopModerationAPI,
	sessions SessionProvider,
	resync ResyncFunc,
	confirm Confirmer,
	activity Recorder,
	logger *zap.Logger,
) PlatformService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &platformService{
		api:      api,
		sessions: sessions,
		resync:   resync,
		confirm:  confirm,
		activity: activity,
		logger:   logger,
	}
}

// Verify marks a shop as verified
func (s *platformService) Verify(ctx context.Context, shopID int64) error {
	if err := s.authorize(); err != nil {
		return err
	}
	return s.apply(ctx, shopID, transport.ShopVerify, "Shop verified")
}

// Suspend deactivates a shop after confirmation; declining does nothing
func (s *platformService) Suspend(ctx context.Context, shopID int64) error {
	if err := s.authorize(); err != nil {
		return err
	}
	if !confirmed(s.confirm, suspendShopPrompt) {
		return nil
	}
	return s.apply(ctx, shopID, transport.ShopSuspend, "Shop suspended")
}

// Activate reopens a suspended shop
func (s *platformService) Activate(ctx context.Context, shopID int64) error {
	if err := s.authorize(); err != nil {
		return err
	}
	return s.apply(ctx, shopID, transport.ShopActivate, "Shop activated")
}

func (s *platformService) authorize() error {
	session := s.sessions.Current()
	if session == nil || session.Role != domain.RoleSuperAdmin {
		return ErrForbidden
	}
	return nil
}

// apply expects the caller to have authorized the session
func (s *platformService) apply(ctx context.Context, shopID int64, action transport.ShopAction, done string) error {
	if err := s.api.UpdateShopStatus(ctx, shopID, action); err != nil {
		s.logger.Warn("Shop action failed",
			zap.Int64("shop_id", shopID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		s.activity.Error("Error: " + transport.DetailOr(err, "Failed"))
		return fmt.Errorf("failed to %s shop: %w", action, err)
	}

	s.activity.Success(done)
	if s.resync != nil {
		if err := s.resync(ctx); err != nil {
			s.logger.Warn("Resync after shop action failed", zap.Error(err))
		}
	}
	return nil
}
