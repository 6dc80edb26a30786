package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/validate"
)

var ErrNoCodec = errors.New("spreadsheet codec is not configured")

func (s Service) ExportProducts(ctx context.Context) ([]byte, error) {
	const op = "Service.ExportProducts"

	if s.codec == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCodec)
	}

	ps, err := s.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.codec.EncodeProducts(ps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (s Service) ExportIngredients(ctx context.Context) ([]byte, error) {
	const op = "Service.ExportIngredients"

	if s.codec == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCodec)
	}

	vs, err := s.Ingredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.codec.EncodeIngredients(vs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// ImportProducts creates one product per spreadsheet row. Rows failing
// validation are reported in the outcome list and do not stop the
// import; a storage failure does.
func (s Service) ImportProducts(
	ctx context.Context, principal domain.Principal, blob []byte,
) (domain.ImportReport, error) {
	const op = "Service.ImportProducts"

	if s.codec == nil {
		return domain.ImportReport{}, fmt.Errorf("%s: %w", op, ErrNoCodec)
	}

	rows, err := s.codec.DecodeProductRows(blob)
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("%s: %w", op, err)
	}

	report, err := importRows(ctx, rows, func(row map[string]any) (string, error) {
		fields, err := validate.ProductCreate(row)
		if err != nil {
			return "", err
		}
		p, err := s.createProduct(ctx, principal, fields)
		return p.ID, err
	})
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info(
		"products imported",
		"op", op, "imported", report.Imported, "failed", report.Failed,
	)
	return report, nil
}

func (s Service) ImportIngredients(
	ctx context.Context, principal domain.Principal, blob []byte,
) (domain.ImportReport, error) {
	const op = "Service.ImportIngredients"

	if s.codec == nil {
		return domain.ImportReport{}, fmt.Errorf("%s: %w", op, ErrNoCodec)
	}

	rows, err := s.codec.DecodeIngredientRows(blob)
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("%s: %w", op, err)
	}

	report, err := importRows(ctx, rows, func(row map[string]any) (string, error) {
		fields, err := validate.IngredientCreate(row)
		if err != nil {
			return "", err
		}
		v, err := s.createIngredient(ctx, principal, fields)
		return v.ID, err
	})
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info(
		"ingredients imported",
		"op", op, "imported", report.Imported, "failed", report.Failed,
	)
	return report, nil
}

func importRows(
	ctx context.Context,
	rows []map[string]any,
	create func(map[string]any) (string, error),
) (domain.ImportReport, error) {
	var report domain.ImportReport

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := domain.ImportOutcome{Row: i + 1}

		id, err := create(row)
		if err != nil {
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				return report, err
			}
			outcome.Errors = vErr.Fields
			report.Failed++
		} else {
			outcome.ID = id
			report.Imported++
		}

		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}
