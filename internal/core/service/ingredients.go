package service

import (
	"context"
	"fmt"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/validate"
)

func (s Service) CreateIngredient(
	ctx context.Context, principal domain.Principal, raw map[string]any,
) (domain.Ingredient, error) {
	const op = "Service.CreateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	fields, err := validate.IngredientCreate(raw)
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.createIngredient(ctx, principal, fields)
}

func (s Service) createIngredient(
	ctx context.Context,
	principal domain.Principal,
	fields domain.IngredientFields,
) (domain.Ingredient, error) {
	const op = "Service.createIngredient"

	v, err := s.ingredients.CreateIngredient(ctx, fields, principal.UserID)
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publishIngredient(ctx, domain.IngredientEvent{
		Kind:         domain.EventCreated,
		IngredientID: v.ID,
		Ingredient:   &v,
		OccurredAt:   v.UpdatedAt,
	})
	return v, nil
}

func (s Service) UpdateIngredient(
	ctx context.Context, id string, raw map[string]any,
) (domain.Ingredient, bool, error) {
	const op = "Service.UpdateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	patch, err := validate.IngredientUpdate(raw)
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	v, ok, err := s.ingredients.UpdateIngredient(ctx, id, patch)
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Ingredient{}, false, nil
	}

	s.publishIngredient(ctx, domain.IngredientEvent{
		Kind:         domain.EventUpdated,
		IngredientID: v.ID,
		Ingredient:   &v,
		OccurredAt:   v.UpdatedAt,
	})
	return v, true, nil
}

func (s Service) DeleteIngredient(ctx context.Context, id string) (bool, error) {
	const op = "Service.DeleteIngredient"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.ingredients.DeleteIngredient(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if deleted {
		s.publishIngredient(ctx, domain.IngredientEvent{
			Kind:         domain.EventDeleted,
			IngredientID: id,
			OccurredAt:   time.Now(),
		})
	}
	return deleted, nil
}

func (s Service) Ingredient(
	ctx context.Context, id string,
) (domain.Ingredient, bool, error) {
	const op = "Service.Ingredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	v, ok, err := s.ingredients.ReadIngredient(ctx, id)
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, ok, nil
}

func (s Service) Ingredients(ctx context.Context) ([]domain.Ingredient, error) {
	const op = "Service.Ingredients"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vs, err := s.ingredients.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

// SearchIngredients matches query against name, category and E number.
func (s Service) SearchIngredients(
	ctx context.Context, query string,
) ([]domain.Ingredient, error) {
	const op = "Service.SearchIngredients"

	vs, err := s.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := newMatcher(query)
	return filter(vs, func(v domain.Ingredient) bool {
		return m.containedIn(v.Name) ||
			m.containedIn(v.Category) ||
			m.containedInPtr(v.ENumber)
	}), nil
}

func (s Service) IngredientsByCategory(
	ctx context.Context, category string,
) ([]domain.Ingredient, error) {
	const op = "Service.IngredientsByCategory"

	vs, err := s.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := newMatcher(category)
	return filter(vs, func(v domain.Ingredient) bool {
		return m.equals(v.Category)
	}), nil
}

// IngredientsByAllergen returns ingredients with at least one allergen
// tag containing allergen.
func (s Service) IngredientsByAllergen(
	ctx context.Context, allergen string,
) ([]domain.Ingredient, error) {
	const op = "Service.IngredientsByAllergen"

	vs, err := s.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := newMatcher(allergen)
	return filter(vs, func(v domain.Ingredient) bool {
		for _, a := range v.Allergens {
			if m.containedIn(a) {
				return true
			}
		}
		return false
	}), nil
}

func (s Service) DuplicateIngredient(
	ctx context.Context, principal domain.Principal, id string,
) (domain.Ingredient, bool, error) {
	const op = "Service.DuplicateIngredient"

	orig, ok, err := s.Ingredient(ctx, id)
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.Ingredient{}, false, nil
	}

	fields := orig.IngredientFields.Duplicate()
	if err := validate.Ingredient(fields); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	v, err := s.createIngredient(ctx, principal, fields)
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}
