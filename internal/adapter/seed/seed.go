// Package seed fills an empty catalog from a YAML file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"gopkg.in/yaml.v3"
)

// File is the seed document. Records use the same keys as the JSON API.
type File struct {
	Products    []map[string]any `yaml:"products"`
	Ingredients []map[string]any `yaml:"ingredients"`
}

type Loader struct {
	products    port.ProductsService
	ingredients port.IngredientsService
}

func NewLoader(
	products port.ProductsService, ingredients port.IngredientsService,
) Loader {
	return Loader{products, ingredients}
}

func ReadFile(path string) (File, error) {
	const op = "seed.ReadFile"

	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Load creates the seed records of every collection that is still empty,
// so restarting against a persistent storage does not duplicate them.
// All records are validated like API payloads and owned by
// [domain.SystemPrincipal].
func (l Loader) Load(ctx context.Context, f File) error {
	const op = "Loader.Load"
	log := slog.With("op", op)

	ps, err := l.products.Products(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(ps) == 0 {
		var errs []error
		for i, raw := range f.Products {
			if _, err := l.products.CreateProduct(
				ctx, domain.SystemPrincipal, raw,
			); err != nil {
				errs = append(errs, fmt.Errorf("product %d: %w", i+1, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("products seeded", "count", len(f.Products))
	}

	vs, err := l.ingredients.Ingredients(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(vs) == 0 {
		var errs []error
		for i, raw := range f.Ingredients {
			if _, err := l.ingredients.CreateIngredient(
				ctx, domain.SystemPrincipal, raw,
			); err != nil {
				errs = append(errs, fmt.Errorf("ingredient %d: %w", i+1, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("ingredients seeded", "count", len(f.Ingredients))
	}

	return nil
}
