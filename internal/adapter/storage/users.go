package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

var _ port.UsersStorage = UsersRepository{}

const uniqueViolation = "23505"

const userColumns = `
	user_id, email, name, password_hash, created_at, updated_at`

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

func (r UsersRepository) CreateUser(
	ctx context.Context, u domain.User,
) (domain.User, error) {
	const op = "UsersRepository.CreateUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO users (user_id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns + `;`

	created, err := scanUser(r.sqldb.QueryRowContext(
		ctx, query, uuid.NewString(), u.Email, u.Name, u.PasswordHash,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUserExists)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (r UsersRepository) ReadUser(
	ctx context.Context, id string,
) (domain.User, bool, error) {
	const op = "UsersRepository.ReadUser"
	return r.readOne(ctx, op, `user_id = $1`, id)
}

func (r UsersRepository) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, bool, error) {
	const op = "UsersRepository.ReadUserByEmail"
	return r.readOne(ctx, op, `lower(email) = lower($1)`, email)
}

func (r UsersRepository) readOne(
	ctx context.Context, op, where string, arg any,
) (domain.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + `;`

	u, err := scanUser(r.sqldb.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, true, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u    domain.User
		name sql.NullString
	)
	err := s.Scan(
		&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Name = name.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
