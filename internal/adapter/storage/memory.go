package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

var (
	_ port.ProductsStorage    = (*MemoryStorage)(nil)
	_ port.IngredientsStorage = (*MemoryStorage)(nil)
	_ port.UsersStorage       = (*MemoryStorage)(nil)
)

type MemoryOpt func(*MemoryStorage)

// MemoryClockOpt replaces time.Now, tests use it to freeze time.
func MemoryClockOpt(clock func() time.Time) MemoryOpt {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

func MemoryIDOpt(newID func() string) MemoryOpt {
	return func(s *MemoryStorage) {
		s.newID = newID
	}
}

// collection is a map guarded by its own lock. Every operation holds the
// lock for its whole read-modify-write.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

// MemoryStorage keeps products, ingredients and users in process memory.
type MemoryStorage struct {
	clock       func() time.Time
	newID       func() string
	products    *collection[domain.Product]
	ingredients *collection[domain.Ingredient]
	users       *collection[domain.User]
}

func NewMemoryStorage(opts ...MemoryOpt) *MemoryStorage {
	s := &MemoryStorage{
		clock:       time.Now,
		newID:       uuid.NewString,
		products:    newCollection[domain.Product](),
		ingredients: newCollection[domain.Ingredient](),
		users:       newCollection[domain.User](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStorage) now() time.Time {
	return s.clock().UTC()
}

// touch returns the update time for a record last changed at prev. It
// never goes backwards, so createdAt <= updatedAt holds even when the
// wall clock does.
func (s *MemoryStorage) touch(prev time.Time) time.Time {
	now := s.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

// uniqueID is called with the collection lock held.
func uniqueID[T any](c *collection[T], newID func() string) (string, error) {
	const attempts = 3
	for range attempts {
		id := newID()
		if _, taken := c.items[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique id in %d attempts", attempts)
}

func byCreation[T any](created func(T) time.Time, id func(T) string) func(a, b T) int {
	return func(a, b T) int {
		if c := created(a).Compare(created(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	}
}

// Products

func (s *MemoryStorage) CreateProduct(
	ctx context.Context, fields domain.ProductFields, userID string,
) (domain.Product, error) {
	const op = "MemoryStorage.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	c := s.products
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := uniqueID(c, s.newID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	p := domain.Product{
		ID:            id,
		ProductFields: fields,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.items[id] = p
	return p, nil
}

func (s *MemoryStorage) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, bool, error) {
	const op = "MemoryStorage.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.products
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.items[id]
	return p, ok, nil
}

func (s *MemoryStorage) ListProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "MemoryStorage.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := s.products
	c.mu.RLock()
	ps := make([]domain.Product, 0, len(c.items))
	for _, p := range c.items {
		ps = append(ps, p)
	}
	c.mu.RUnlock()

	slices.SortFunc(ps, byCreation(
		func(p domain.Product) time.Time { return p.CreatedAt },
		func(p domain.Product) string { return p.ID },
	))
	return ps, nil
}

func (s *MemoryStorage) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, bool, error) {
	const op = "MemoryStorage.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.products
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.items[id]
	if !ok {
		return domain.Product{}, false, nil
	}

	patch.Apply(&p.ProductFields)
	p.UpdatedAt = s.touch(p.UpdatedAt)
	c.items[id] = p
	return p, true, nil
}

func (s *MemoryStorage) DeleteProduct(
	ctx context.Context, id string,
) (bool, error) {
	const op = "MemoryStorage.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.products
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false, nil
	}
	delete(c.items, id)
	return true, nil
}

// Ingredients

func (s *MemoryStorage) CreateIngredient(
	ctx context.Context, fields domain.IngredientFields, userID string,
) (domain.Ingredient, error) {
	const op = "MemoryStorage.CreateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	c := s.ingredients
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := uniqueID(c, s.newID)
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	v := domain.Ingredient{
		ID:               id,
		IngredientFields: fields,
		UserID:           userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	v = v.Clone()
	c.items[id] = v
	return v.Clone(), nil
}

func (s *MemoryStorage) ReadIngredient(
	ctx context.Context, id string,
) (domain.Ingredient, bool, error) {
	const op = "MemoryStorage.ReadIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.ingredients
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[id]
	if !ok {
		return domain.Ingredient{}, false, nil
	}
	return v.Clone(), true, nil
}

func (s *MemoryStorage) ListIngredients(
	ctx context.Context,
) ([]domain.Ingredient, error) {
	const op = "MemoryStorage.ListIngredients"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := s.ingredients
	c.mu.RLock()
	vs := make([]domain.Ingredient, 0, len(c.items))
	for _, v := range c.items {
		vs = append(vs, v.Clone())
	}
	c.mu.RUnlock()

	slices.SortFunc(vs, byCreation(
		func(v domain.Ingredient) time.Time { return v.CreatedAt },
		func(v domain.Ingredient) string { return v.ID },
	))
	return vs, nil
}

func (s *MemoryStorage) UpdateIngredient(
	ctx context.Context, id string, patch domain.IngredientPatch,
) (domain.Ingredient, bool, error) {
	const op = "MemoryStorage.UpdateIngredient"

	if err := ctx.Err(); err != nil {
		return domain.Ingredient{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.ingredients
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[id]
	if !ok {
		return domain.Ingredient{}, false, nil
	}

	v = v.Clone()
	patch.Apply(&v.IngredientFields)
	v.UpdatedAt = s.touch(v.UpdatedAt)
	c.items[id] = v
	return v.Clone(), true, nil
}

func (s *MemoryStorage) DeleteIngredient(
	ctx context.Context, id string,
) (bool, error) {
	const op = "MemoryStorage.DeleteIngredient"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.ingredients
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false, nil
	}
	delete(c.items, id)
	return true, nil
}

// Users

func (s *MemoryStorage) CreateUser(
	ctx context.Context, u domain.User,
) (domain.User, error) {
	const op = "MemoryStorage.CreateUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	c := s.users
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.items {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUserExists)
		}
	}

	id, err := uniqueID(c, s.newID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	c.items[id] = u
	return u, nil
}

func (s *MemoryStorage) ReadUser(
	ctx context.Context, id string,
) (domain.User, bool, error) {
	const op = "MemoryStorage.ReadUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.users
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.items[id]
	return u, ok, nil
}

func (s *MemoryStorage) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, bool, error) {
	const op = "MemoryStorage.ReadUserByEmail"

	if err := ctx.Err(); err != nil {
		return domain.User{}, false, fmt.Errorf("%s: %w", op, err)
	}

	c := s.users
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, u := range c.items {
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}
