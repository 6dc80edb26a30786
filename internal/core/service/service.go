package service

import (
	"context"
	"log/slog"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

var (
	_ port.ProductsService    = (*Service)(nil)
	_ port.IngredientsService = (*Service)(nil)
	_ port.LabelReader        = (*Service)(nil)
)

// Service is the single entry point for catalog operations. It validates
// payloads, talks to the entity storages and announces committed changes.
type Service struct {
	products    port.ProductsStorage
	ingredients port.IngredientsStorage
	codec       port.SpreadsheetCodec
	events      port.CatalogEventsPublisher
}

// New returns a Service. A nil events publisher disables change events.
func New(
	products port.ProductsStorage,
	ingredients port.IngredientsStorage,
	codec port.SpreadsheetCodec,
	events port.CatalogEventsPublisher,
) Service {
	if events == nil {
		events = nopEvents{}
	}
	return Service{
		products:    products,
		ingredients: ingredients,
		codec:       codec,
		events:      events,
	}
}

// ReadLabel serves public labels straight from the products storage.
func (s Service) ReadLabel(
	ctx context.Context, productID string,
) (domain.Product, bool, error) {
	return s.Product(ctx, productID)
}

// Mutations are already committed when events are published, so a
// broker failure is logged and not returned to the caller.
func (s Service) publishProduct(ctx context.Context, evt domain.ProductEvent) {
	const op = "Service.publishProduct"
	if err := s.events.PublishProductEvent(ctx, evt); err != nil {
		slog.Warn(
			"failed to publish product event",
			"op", op, "kind", evt.Kind, "productID", evt.ProductID, "err", err,
		)
	}
}

func (s Service) publishIngredient(
	ctx context.Context, evt domain.IngredientEvent,
) {
	const op = "Service.publishIngredient"
	if err := s.events.PublishIngredientEvent(ctx, evt); err != nil {
		slog.Warn(
			"failed to publish ingredient event",
			"op", op, "kind", evt.Kind, "ingredientID", evt.IngredientID, "err", err,
		)
	}
}

type nopEvents struct{}

func (nopEvents) PublishProductEvent(context.Context, domain.ProductEvent) error {
	return nil
}

func (nopEvents) PublishIngredientEvent(
	context.Context, domain.IngredientEvent,
) error {
	return nil
}
