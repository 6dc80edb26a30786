package storage_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/e-label/internal/adapter/storage"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSNEnv = "ELABEL_TEST_POSTGRES_DSN"

type backend struct {
	products    port.ProductsStorage
	ingredients port.IngredientsStorage
	users       port.UsersStorage
}

// backends returns the memory storage and, when a test database is
// configured, the postgres repositories on a freshly migrated schema.
func backends(t *testing.T) map[string]func(t *testing.T) backend {
	t.Helper()

	bs := map[string]func(t *testing.T) backend{
		"Memory": func(t *testing.T) backend {
			s := storage.NewMemoryStorage()
			return backend{s, s, s}
		},
	}

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		return bs
	}

	bs["Postgres"] = func(t *testing.T) backend {
		const migrations = "../../../migrations"
		require.NoError(t, storage.Migrate(dsn, migrations, true))
		require.NoError(t, storage.Migrate(dsn, migrations, false))

		ctx := context.Background()
		db, err := storage.NewSQLDB(ctx, storage.SQLConfig{DSN: dsn})
		require.NoError(t, err)
		t.Cleanup(db.Close)

		return backend{
			products:    storage.NewProductsRepository(db),
			ingredients: storage.NewIngredientsRepository(db),
			users:       storage.NewUsersRepository(db),
		}
	}
	return bs
}

func ptr(s string) *string {
	return &s
}

func margaux() domain.ProductFields {
	return domain.ProductFields{
		Name:           "Château Margaux 2015",
		Brand:          "Château Margaux",
		SKU:            "CM2015-750",
		NetVolume:      ptr("750ml"),
		Type:           ptr("Red Wine"),
		AlcoholContent: decimal.NewNullDecimal(decimal.RequireFromString("13.5")),
		Country:        ptr("France"),
	}
}

func TestProductsStorage(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newBackend(t).products

			created, err := s.CreateProduct(ctx, margaux(), "user-1")
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)
			assert.Equal(t, "user-1", created.UserID)
			assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

			got, ok, err := s.ReadProduct(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Name, got.Name)
			assert.Equal(t, created.NetVolume, got.NetVolume)
			assert.Nil(t, got.Vintage)
			require.True(t, got.AlcoholContent.Valid)
			assert.True(t, got.AlcoholContent.Decimal.Equal(decimal.RequireFromString("13.5")))

			updated, ok, err := s.UpdateProduct(ctx, created.ID, domain.ProductPatch{
				Vintage:        domain.Assign("2015"),
				Country:        domain.Clear[string](),
				AlcoholContent: domain.Clear[decimal.Decimal](),
			})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, created.ID, updated.ID)
			assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
			assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
			require.NotNil(t, updated.Vintage)
			assert.Equal(t, "2015", *updated.Vintage)
			assert.Nil(t, updated.Country)
			assert.False(t, updated.AlcoholContent.Valid)
			assert.Equal(t, created.SKU, updated.SKU)

			_, ok, err = s.UpdateProduct(ctx, "missing", domain.ProductPatch{})
			require.NoError(t, err)
			assert.False(t, ok)

			ps, err := s.ListProducts(ctx)
			require.NoError(t, err)
			assert.Len(t, ps, 1)

			deleted, err := s.DeleteProduct(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.DeleteProduct(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, deleted)

			_, ok, err = s.ReadProduct(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestProductsStorageKeepsExactAlcoholContent(t *testing.T) {
	values := []string{"1000", "13.555", "12.123456789012345678"}

	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newBackend(t).products

			for _, v := range values {
				want := decimal.RequireFromString(v)
				fields := margaux()
				fields.AlcoholContent = decimal.NewNullDecimal(want)

				created, err := s.CreateProduct(ctx, fields, "user-1")
				require.NoError(t, err)

				got, ok, err := s.ReadProduct(ctx, created.ID)
				require.NoError(t, err)
				require.True(t, ok)
				require.True(t, got.AlcoholContent.Valid)
				assert.True(t, want.Equal(got.AlcoholContent.Decimal),
					"want %s, got %s", want, got.AlcoholContent.Decimal)

				updated, ok, err := s.UpdateProduct(ctx, created.ID, domain.ProductPatch{
					AlcoholContent: domain.Assign(want.Neg()),
				})
				require.NoError(t, err)
				require.True(t, ok)
				assert.True(t, want.Neg().Equal(updated.AlcoholContent.Decimal))
			}
		})
	}
}

func TestIngredientsStorage(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newBackend(t).ingredients

			created, err := s.CreateIngredient(ctx, domain.IngredientFields{
				Name:      "Sulfites",
				Category:  "Preservative",
				ENumber:   ptr("E220"),
				Allergens: []string{"Contains sulfites", "May contain, traces"},
			}, "user-1")
			require.NoError(t, err)

			got, ok, err := s.ReadIngredient(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t,
				[]string{"Contains sulfites", "May contain, traces"},
				got.Allergens,
			)
			assert.Nil(t, got.Description)

			got.Allergens[0] = "mutated"
			again, _, err := s.ReadIngredient(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Contains sulfites", again.Allergens[0])

			updated, ok, err := s.UpdateIngredient(ctx, created.ID, domain.IngredientPatch{
				Allergens: domain.Clear[[]string](),
			})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Nil(t, updated.Allergens)
			assert.Equal(t, "Sulfites", updated.Name)

			vs, err := s.ListIngredients(ctx)
			require.NoError(t, err)
			assert.Len(t, vs, 1)

			deleted, err := s.DeleteIngredient(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.DeleteIngredient(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}

func TestUsersStorage(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newBackend(t).users

			u, err := s.CreateUser(ctx, domain.User{
				Email: "Editor@Winery.example", Name: "Editor", PasswordHash: "hash",
			})
			require.NoError(t, err)
			require.NotEmpty(t, u.ID)

			_, err = s.CreateUser(ctx, domain.User{
				Email: "editor@winery.example", PasswordHash: "hash",
			})
			assert.ErrorIs(t, err, domain.ErrUserExists)

			got, ok, err := s.ReadUserByEmail(ctx, "editor@WINERY.example")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, u.ID, got.ID)

			got, ok, err = s.ReadUser(ctx, u.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Editor", got.Name)

			_, ok, err = s.ReadUser(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStorage()

	const n = 64
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.CreateProduct(ctx, margaux(), "user-1")
			assert.NoError(t, err)
			ids[i] = p.ID
		}()
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)

	ps, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, n)
}

func TestMemoryIDCollision(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStorage(
		storage.MemoryIDOpt(func() string { return "same" }),
	)

	_, err := s.CreateProduct(ctx, margaux(), "")
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, margaux(), "")
	assert.Error(t, err)
}

func TestMemoryUpdatedAtNeverGoesBack(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := storage.NewMemoryStorage(
		storage.MemoryClockOpt(func() time.Time { return now }),
	)

	p, err := s.CreateProduct(ctx, margaux(), "")
	require.NoError(t, err)

	now = now.Add(-time.Hour)
	updated, ok, err := s.UpdateProduct(ctx, p.ID, domain.ProductPatch{
		Name: domain.Assign("Renamed"),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.Equal(t, p.UpdatedAt, updated.UpdatedAt)
}
