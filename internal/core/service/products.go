package service

import (
	"context"
	"fmt"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/validate"
)

func (s Service) CreateProduct(
	ctx context.Context, principal domain.Principal, raw map[string]any,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	fields, err := validate.ProductCreate(raw)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.createProduct(ctx, principal, fields)
}

func (s Service) createProduct(
	ctx context.Context, principal domain.Principal, fields domain.ProductFields,
) (domain.Product, error) {
	const op = "Service.createProduct"

	p, err := s.products.CreateProduct(ctx, fields, principal.UserID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publishProduct(ctx, domain.ProductEvent{
		Kind:       domain.EventCreated,
		ProductID:  p.ID,
		Product:    &p,
		OccurredAt: p.UpdatedAt,
	})
	return p, nil
}

func (s Service) UpdateProduct(
	ctx context.Context, id string, raw map[string]any,
) (domain.Product, bool, error) {
	const op = "Service.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	patch, err := validate.ProductUpdate(raw)
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	p, ok, err := s.products.UpdateProduct(ctx, id, patch)
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Product{}, false, nil
	}

	s.publishProduct(ctx, domain.ProductEvent{
		Kind:       domain.EventUpdated,
		ProductID:  p.ID,
		Product:    &p,
		OccurredAt: p.UpdatedAt,
	})
	return p, true, nil
}

func (s Service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	const op = "Service.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if deleted {
		s.publishProduct(ctx, domain.ProductEvent{
			Kind:       domain.EventDeleted,
			ProductID:  id,
			OccurredAt: time.Now(),
		})
	}
	return deleted, nil
}

func (s Service) Product(
	ctx context.Context, id string,
) (domain.Product, bool, error) {
	const op = "Service.Product"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	p, ok, err := s.products.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, ok, nil
}

func (s Service) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.Products"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// SearchProducts matches query against name, brand, type and country.
// An empty query returns every product.
func (s Service) SearchProducts(
	ctx context.Context, query string,
) ([]domain.Product, error) {
	const op = "Service.SearchProducts"

	ps, err := s.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := newMatcher(query)
	return filter(ps, func(p domain.Product) bool {
		return m.containedIn(p.Name) ||
			m.containedIn(p.Brand) ||
			m.containedInPtr(p.Type) ||
			m.containedInPtr(p.Country)
	}), nil
}

// ProductsByType returns products whose type equals productType, ignoring
// case.
func (s Service) ProductsByType(
	ctx context.Context, productType string,
) ([]domain.Product, error) {
	const op = "Service.ProductsByType"

	ps, err := s.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := newMatcher(productType)
	return filter(ps, func(p domain.Product) bool {
		return p.Type != nil && m.equals(*p.Type)
	}), nil
}

func (s Service) DuplicateProduct(
	ctx context.Context, principal domain.Principal, id string,
) (domain.Product, bool, error) {
	const op = "Service.DuplicateProduct"

	orig, ok, err := s.Product(ctx, id)
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Product{}, false, nil
	}

	fields := orig.ProductFields.Duplicate()
	if err := validate.Product(fields); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.createProduct(ctx, principal, fields)
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, true, nil
}
