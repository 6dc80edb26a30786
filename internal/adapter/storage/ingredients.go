package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

var _ port.IngredientsStorage = IngredientsRepository{}

const ingredientColumns = `
	ingredient_id, name, category, e_number, description,
	allergens::text, user_id, created_at, updated_at`

type IngredientsRepository struct {
	sqldb sqldb
}

func NewIngredientsRepository(sqldb sqldb) IngredientsRepository {
	return IngredientsRepository{sqldb}
}

func (r IngredientsRepository) CreateIngredient(
	ctx context.Context, fields domain.IngredientFields, userID string,
) (domain.Ingredient, error) {
	const op = "IngredientsRepository.CreateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO ingredients (
			ingredient_id, name, category, e_number, description,
			allergens, user_id
		)
		VALUES ($1, $2, $3, $4, $5, $6::text::text[], $7)
		RETURNING ` + ingredientColumns + `;`

	args := append([]any{uuid.NewString()}, ingredientArgs(fields)...)
	args = append(args, userID)

	v, err := scanIngredient(r.sqldb.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r IngredientsRepository) ReadIngredient(
	ctx context.Context, id string,
) (domain.Ingredient, bool, error) {
	const op = "IngredientsRepository.ReadIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ` + ingredientColumns + `
		FROM ingredients WHERE ingredient_id = $1;`

	v, err := scanIngredient(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ingredient{}, false, nil
		}
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

func (r IngredientsRepository) ListIngredients(
	ctx context.Context,
) (vs []domain.Ingredient, err error) {
	const op = "IngredientsRepository.ListIngredients"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ` + ingredientColumns + `
		FROM ingredients
		ORDER BY created_at ASC, ingredient_id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s: %w", op, closeErr)
		}
	}()

	vs = make([]domain.Ingredient, 0)
	for rows.Next() {
		v, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}

func (r IngredientsRepository) UpdateIngredient(
	ctx context.Context, id string, patch domain.IngredientPatch,
) (domain.Ingredient, bool, error) {
	const op = "IngredientsRepository.UpdateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var (
		updated domain.Ingredient
		found   bool
	)
	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		selectQuery := `
			SELECT ` + ingredientColumns + `
			FROM ingredients WHERE ingredient_id = $1
			FOR UPDATE;`

		v, err := scanIngredient(tx.QueryRowContext(ctx, selectQuery, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true

		patch.Apply(&v.IngredientFields)

		updateQuery := `
			UPDATE ingredients SET
				name = $2, category = $3, e_number = $4, description = $5,
				allergens = $6::text::text[],
				updated_at = GREATEST(now(), updated_at)
			WHERE ingredient_id = $1
			RETURNING ` + ingredientColumns + `;`

		args := append([]any{id}, ingredientArgs(v.IngredientFields)...)
		updated, err = scanIngredient(tx.QueryRowContext(ctx, updateQuery, args...))
		return err
	})
	if err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return updated, found, nil
}

func (r IngredientsRepository) DeleteIngredient(
	ctx context.Context, id string,
) (bool, error) {
	const op = "IngredientsRepository.DeleteIngredient"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.sqldb.ExecContext(
		ctx, `DELETE FROM ingredients WHERE ingredient_id = $1;`, id,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func ingredientArgs(f domain.IngredientFields) []any {
	var allergens any
	if f.Allergens != nil {
		allergens = pq.Array(f.Allergens)
	}
	return []any{
		f.Name, f.Category, nullString(f.ENumber), nullString(f.Description),
		allergens,
	}
}

func scanIngredient(s scanner) (domain.Ingredient, error) {
	var (
		v                            domain.Ingredient
		eNumber, description, userID sql.NullString
		allergens                    pq.StringArray
	)

	err := s.Scan(
		&v.ID, &v.Name, &v.Category, &eNumber, &description,
		&allergens, &userID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return domain.Ingredient{}, err
	}

	v.ENumber = stringPtr(eNumber)
	v.Description = stringPtr(description)
	if len(allergens) > 0 {
		v.Allergens = []string(allergens)
	}
	v.UserID = userID.String
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}
