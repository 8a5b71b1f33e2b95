// Package products manages the investable product catalog.
package products

import (
	"context"
	"fmt"

	"github.com/vestapay/platform/internal/app/domain/product"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// Service manages products.
type Service struct {
	store storage.ProductStore
	log   *logger.Logger
}

// New constructs a product service.
func New(store storage.ProductStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("products")
	}
	return &Service{store: store, log: log}
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, p product.Product) (product.Product, error) {
	if err := validate(p); err != nil {
		return product.Product{}, err
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return product.Product{}, err
	}
	s.log.Infof("product %s (%s) created", created.ID, created.Name)
	return created, nil
}

// Update overwrites a product's mutable fields. units_sold is preserved by
// the store.
func (s *Service) Update(ctx context.Context, p product.Product) (product.Product, error) {
	if p.ID == "" {
		return product.Product{}, fmt.Errorf("id is required")
	}
	if err := validate(p); err != nil {
		return product.Product{}, err
	}
	return s.store.UpdateProduct(ctx, p)
}

// Get retrieves a product by id.
func (s *Service) Get(ctx context.Context, id string) (product.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// List returns products; activeOnly hides retired offerings.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	return s.store.ListProducts(ctx, activeOnly)
}

func validate(p product.Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if p.ExpectedReturn < p.Price {
		return fmt.Errorf("expected return must not be below price")
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if p.TotalUnits < 0 {
		return fmt.Errorf("total units must not be negative")
	}
	return nil
}
