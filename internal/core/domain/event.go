package domain

import "time"

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// A ProductEvent reports a committed product mutation. Product is nil for
// deletions.
type ProductEvent struct {
	Kind       EventKind
	ProductID  string
	Product    *Product
	OccurredAt time.Time
}

type IngredientEvent struct {
	Kind         EventKind
	IngredientID string
	Ingredient   *Ingredient
	OccurredAt   time.Time
}
