package product

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/store"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, int64, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
}

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, actor *auth.Principal, dto CreateProductDTO) (*Product, error)
	Update(ctx context.Context, actor *auth.Principal, id int64, dto UpdateProductDTO) (*Product, error)
	Deactivate(ctx context.Context, actor *auth.Principal, id int64) (*Product, error)
}

type Service struct {
	repo   Repository
	tx     store.Transactor
	logger *slog.Logger
}

func NewService(repo Repository, tx store.Transactor, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list products", "error", err)
		return nil, internal.NewInternalError("failed to list products", err)
	}
	return &ListResult{Products: products, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to get product")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.Principal, dto CreateProductDTO) (*Product, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Product{
		SKU:         dto.SKU,
		Name:        dto.Name,
		Description: dto.Description,
		PriceCents:  dto.PriceCents,
		SupplierID:  dto.SupplierID,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if store.IsDuplicateKey(err) {
			return nil, internal.ErrSKUTaken
		}
		return nil, s.wrap(err, "failed to create product")
	}

	s.logger.InfoContext(ctx, "product created", "product_id", p.ID, "sku", p.SKU, "by", actor.ID)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Principal, id int64, dto UpdateProductDTO) (*Product, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if dto.Name != nil {
			p.Name = *dto.Name
		}
		if dto.Description != nil {
			p.Description = *dto.Description
		}
		if dto.PriceCents != nil {
			p.PriceCents = *dto.PriceCents
		}
		if dto.IsActive != nil {
			p.IsActive = *dto.IsActive
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "failed to update product")
	}

	s.logger.InfoContext(ctx, "product updated", "product_id", id, "by", actor.ID)
	return updated, nil
}

// Deactivate hides the product from listings and new orders. Existing
// wishlist items and orders keep referencing it.
func (s *Service) Deactivate(ctx context.Context, actor *auth.Principal, id int64) (*Product, error) {
	inactive := false
	return s.Update(ctx, actor, id, UpdateProductDTO{IsActive: &inactive})
}

func (s *Service) wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error(msg, "error", err)
	return internal.NewInternalError(msg, err)
}
