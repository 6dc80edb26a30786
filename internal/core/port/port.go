package port

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Storage

type ProductsStorage interface {
	CreateProduct(context.Context, domain.ProductFields, string) (domain.Product, error)
	ReadProduct(ctx context.Context, id string) (domain.Product, bool, error)
	ListProducts(context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.ProductPatch) (domain.Product, bool, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

type IngredientsStorage interface {
	CreateIngredient(context.Context, domain.IngredientFields, string) (domain.Ingredient, error)
	ReadIngredient(ctx context.Context, id string) (domain.Ingredient, bool, error)
	ListIngredients(context.Context) ([]domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, p domain.IngredientPatch) (domain.Ingredient, bool, error)
	DeleteIngredient(ctx context.Context, id string) (bool, error)
}

type UsersStorage interface {
	// CreateUser fails with [domain.ErrUserExists] on a taken email.
	CreateUser(context.Context, domain.User) (domain.User, error)
	ReadUser(ctx context.Context, id string) (domain.User, bool, error)
	ReadUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
}

// Core services consumed by the inbound adapters.

type ProductsService interface {
	CreateProduct(context.Context, domain.Principal, map[string]any) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, raw map[string]any) (domain.Product, bool, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
	Product(ctx context.Context, id string) (domain.Product, bool, error)
	Products(context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	ProductsByType(ctx context.Context, productType string) ([]domain.Product, error)
	DuplicateProduct(context.Context, domain.Principal, string) (domain.Product, bool, error)
	ExportProducts(context.Context) ([]byte, error)
	ImportProducts(context.Context, domain.Principal, []byte) (domain.ImportReport, error)
}

type IngredientsService interface {
	CreateIngredient(context.Context, domain.Principal, map[string]any) (domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, raw map[string]any) (domain.Ingredient, bool, error)
	DeleteIngredient(ctx context.Context, id string) (bool, error)
	Ingredient(ctx context.Context, id string) (domain.Ingredient, bool, error)
	Ingredients(context.Context) ([]domain.Ingredient, error)
	SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error)
	IngredientsByCategory(ctx context.Context, category string) ([]domain.Ingredient, error)
	IngredientsByAllergen(ctx context.Context, allergen string) ([]domain.Ingredient, error)
	DuplicateIngredient(context.Context, domain.Principal, string) (domain.Ingredient, bool, error)
	ExportIngredients(context.Context) ([]byte, error)
	ImportIngredients(context.Context, domain.Principal, []byte) (domain.ImportReport, error)
}

// Identity provider.

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (domain.Principal, error)
}

type IdentityProvider interface {
	TokenVerifier
	Register(ctx context.Context, email, password, name string) (domain.Principal, error)
	VerifyCredentials(ctx context.Context, email, password string) (domain.Principal, error)
	IssueToken(domain.Principal) (token string, expiresAt time.Time, err error)
}

// Spreadsheet codec.

type SpreadsheetCodec interface {
	EncodeProducts([]domain.Product) ([]byte, error)
	EncodeIngredients([]domain.Ingredient) ([]byte, error)
	DecodeProductRows([]byte) ([]map[string]any, error)
	DecodeIngredientRows([]byte) ([]map[string]any, error)
}

// Labels.

type LabelReader interface {
	ReadLabel(ctx context.Context, productID string) (domain.Product, bool, error)
}

type LabelRenderer interface {
	LabelURL(productID string) string
	RenderQR(ctx context.Context, productID string) ([]byte, error)
}

type ImageCache interface {
	ReadImage(ctx context.Context, key string) ([]byte, bool, error)
	StoreImage(ctx context.Context, key string, data []byte, contentType string) error
}

// Messaging.

type CatalogEventsPublisher interface {
	PublishProductEvent(context.Context, domain.ProductEvent) error
	PublishIngredientEvent(context.Context, domain.IngredientEvent) error
}

type LabelProcessor interface {
	runnerContextWg
	closer
}
