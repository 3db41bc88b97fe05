package service

import (
	"context"
	"errors"
	"fmt"

	"kommand-console/internal/domain"
	"kommand-console/internal/transport"

	"go.uber.org/zap"
)

var ErrForbidden = errors.New("not allowed for this session")

const deleteProductPrompt = "Delete this product?"

// CatalogService defines the shop admin's product mutations
type CatalogService interface {
	Create(ctx context.Context, form ProductForm) error
	Update(ctx context.Context, productID int64, form ProductForm) error
	Delete(ctx context.Context, productID int64) error
}

type catalogService struct {
	api      ProductAPI
	sessions SessionProvider
	resync   ResyncFunc
	confirm  Confirmer
	activity Recorder
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	api ProductAPI,
	sessions SessionProvider,
	resync ResyncFunc,
	confirm Confirmer,
	activity Recorder,
	logger *zap.Logger,
) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		api:      api,
		sessions: sessions,
		resync:   resync,
		confirm:  confirm,
		activity: activity,
		logger:   logger,
	}
}

// shopID returns the admin's shop, or ErrForbidden for any other session
func (s *catalogService) shopID() (int64, error) {
	session := s.sessions.Current()
	if session == nil || session.Role != domain.RoleAdmin || session.ShopID == nil {
		return 0, ErrForbidden
	}
	return *session.ShopID, nil
}

// Create adds a product to the admin's shop
func (s *catalogService) Create(ctx context.Context, form ProductForm) error {
	shopID, err := s.shopID()
	if err != nil {
		return err
	}
	payload, err := form.Payload(&shopID)
	if err != nil {
		return err
	}

	if err := s.api.CreateProduct(ctx, payload); err != nil {
		return s.failed("create product", err)
	}
	s.succeeded(ctx, fmt.Sprintf("Product %q created", payload.Name))
	return nil
}

// Update replaces a product's editable fields
func (s *catalogService) Update(ctx context.Context, productID int64, form ProductForm) error {
	if _, err := s.shopID(); err != nil {
		return err
	}
	payload, err := form.Payload(nil)
	if err != nil {
		return err
	}

	if err := s.api.UpdateProduct(ctx, productID, payload); err != nil {
		return s.failed("update product", err)
	}
	s.succeeded(ctx, fmt.Sprintf("Product %q updated", payload.Name))
	return nil
}

// Delete removes a product after confirmation; declining does nothing
func (s *catalogService) Delete(ctx context.Context, productID int64) error {
	if _, err := s.shopID(); err != nil {
		return err
	}
	if !confirmed(s.confirm, deleteProductPrompt) {
		return nil
	}

	if err := s.api.DeleteProduct(ctx, productID); err != nil {
		return s.failed("delete product", err)
	}
	s.succeeded(ctx, "Product deleted")
	return nil
}

func (s *catalogService) failed(op string, err error) error {
	s.logger.Warn("Mutation failed", zap.String("op", op), zap.Error(err))
	s.activity.Error("Error: " + transport.DetailOr(err, "Failed"))
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (s *catalogService) succeeded(ctx context.Context, message string) {
	s.activity.Success(message)
	if s.resync == nil {
		return
	}
	if err := s.resync(ctx); err != nil {
		s.logger.Warn("Resync after mutation failed", zap.Error(err))
	}
}
