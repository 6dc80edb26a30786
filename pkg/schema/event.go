package schema

import "github.com/hamba/avro/v2"

// ProductEventSchemaTextV1 wraps a product mutation. The product is null
// for deletions.
const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "elabel",
	"name": "product_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "occurred_at", "type": "long"},
		{"name": "product", "type": ["null", {
			"type": "record",
			"name": "product",
			"fields": [` + productFieldsV1 + `
			]
		}], "default": null}
	]
}`

type ProductEventV1 struct {
	EventID    string     `avro:"event_id"`
	Kind       string     `avro:"kind"`
	ProductID  string     `avro:"product_id"`
	OccurredAt int64      `avro:"occurred_at"`
	Product    *ProductV1 `avro:"product"`
}

func ProductEventV1Avro() avro.Schema {
	return avro.MustParse(ProductEventSchemaTextV1)
}

const ingredientFieldsV1 = `
		{"name": "ingredient_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "e_number", "type": ["null", "string"], "default": null},
		{"name": "description", "type": ["null", "string"], "default": null},
		{"name": "allergens", "type": {"type": "array", "items": "string"}},
		{"name": "user_id", "type": "string"},
		{"name": "created_at", "type": "long"},
		{"name": "updated_at", "type": "long"}`

const IngredientEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "elabel",
	"name": "ingredient_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "ingredient_id", "type": "string"},
		{"name": "occurred_at", "type": "long"},
		{"name": "ingredient", "type": ["null", {
			"type": "record",
			"name": "ingredient",
			"fields": [` + ingredientFieldsV1 + `
			]
		}], "default": null}
	]
}`

type (
	IngredientV1 struct {
		IngredientID string   `avro:"ingredient_id"`
		Name         string   `avro:"name"`
		Category     string   `avro:"category"`
		ENumber      *string  `avro:"e_number"`
		Description  *string  `avro:"description"`
		Allergens    []string `avro:"allergens"`
		UserID       string   `avro:"user_id"`
		CreatedAt    int64    `avro:"created_at"`
		UpdatedAt    int64    `avro:"updated_at"`
	}

	IngredientEventV1 struct {
		EventID      string        `avro:"event_id"`
		Kind         string        `avro:"kind"`
		IngredientID string        `avro:"ingredient_id"`
		OccurredAt   int64         `avro:"occurred_at"`
		Ingredient   *IngredientV1 `avro:"ingredient"`
	}
)

func IngredientEventV1Avro() avro.Schema {
	return avro.MustParse(IngredientEventSchemaTextV1)
}
