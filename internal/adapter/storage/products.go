package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

var _ port.ProductsStorage = ProductsRepository{}

const productColumns = `
	product_id, name, brand, sku, net_volume, vintage, type,
	sugar_content, appellation, alcohol_content::text, country,
	description, producer_name, producer_address, user_id,
	created_at, updated_at`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) CreateProduct(
	ctx context.Context, fields domain.ProductFields, userID string,
) (domain.Product, error) {
	const op = "ProductsRepository.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO products (
			product_id, name, brand, sku, net_volume, vintage, type,
			sugar_content, appellation, alcohol_content, country,
			description, producer_name, producer_address, user_id
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10::text::numeric, $11, $12, $13, $14, $15
		)
		RETURNING ` + productColumns + `;`

	args := append(
		[]any{uuid.NewString()},
		productArgs(fields)...,
	)
	args = append(args, userID)

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, bool, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1;`

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, true, nil
}

func (r ProductsRepository) ListProducts(
	ctx context.Context,
) (ps []domain.Product, err error) {
	const op = "ProductsRepository.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at ASC, product_id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s: %w", op, closeErr)
		}
	}()

	ps = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// UpdateProduct locks the row, applies the patch in memory and writes
// every column back in the same transaction.
func (r ProductsRepository) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, bool, error) {
	const op = "ProductsRepository.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var (
		updated domain.Product
		found   bool
	)
	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		selectQuery := `
			SELECT ` + productColumns + `
			FROM products WHERE product_id = $1
			FOR UPDATE;`

		p, err := scanProduct(tx.QueryRowContext(ctx, selectQuery, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true

		patch.Apply(&p.ProductFields)

		updateQuery := `
			UPDATE products SET
				name = $2, brand = $3, sku = $4, net_volume = $5,
				vintage = $6, type = $7, sugar_content = $8,
				appellation = $9, alcohol_content = $10::text::numeric,
				country = $11, description = $12, producer_name = $13,
				producer_address = $14,
				updated_at = GREATEST(now(), updated_at)
			WHERE product_id = $1
			RETURNING ` + productColumns + `;`

		args := append([]any{id}, productArgs(p.ProductFields)...)
		updated, err = scanProduct(tx.QueryRowContext(ctx, updateQuery, args...))
		return err
	})
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return updated, found, nil
}

func (r ProductsRepository) DeleteProduct(
	ctx context.Context, id string,
) (bool, error) {
	const op = "ProductsRepository.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.sqldb.ExecContext(
		ctx, `DELETE FROM products WHERE product_id = $1;`, id,
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

// productArgs returns the writable columns in insert order, name first.
func productArgs(f domain.ProductFields) []any {
	return []any{
		f.Name, f.Brand, f.SKU,
		nullString(f.NetVolume), nullString(f.Vintage), nullString(f.Type),
		nullString(f.SugarContent), nullString(f.Appellation),
		f.AlcoholContent, nullString(f.Country), nullString(f.Description),
		nullString(f.ProducerName), nullString(f.ProducerAddress),
	}
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p domain.Product

		netVolume, vintage, productType, sugarContent, appellation,
		country, description, producerName, producerAddress,
		userID sql.NullString
	)

	err := s.Scan(
		&p.ID, &p.Name, &p.Brand, &p.SKU, &netVolume, &vintage,
		&productType, &sugarContent, &appellation, &p.AlcoholContent,
		&country, &description, &producerName, &producerAddress, &userID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	p.NetVolume = stringPtr(netVolume)
	p.Vintage = stringPtr(vintage)
	p.Type = stringPtr(productType)
	p.SugarContent = stringPtr(sugarContent)
	p.Appellation = stringPtr(appellation)
	p.Country = stringPtr(country)
	p.Description = stringPtr(description)
	p.ProducerName = stringPtr(producerName)
	p.ProducerAddress = stringPtr(producerAddress)
	p.UserID = userID.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
