package schema_test

import (
	"context"
	"testing"

	"github.com/niksmo/e-label/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSchemaIdentifier struct {
	mock.Mock
}

func (c *MockSchemaIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (id int, err error) {
	args := c.Called(ctx, subject, avroSchemaText)
	return args.Int(0), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestSerdeProductV1(t *testing.T) {
	t.Run("NoOpts", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(t.Context())
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("OneOpt", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrTooFewOpts)
	})

	t.Run("EmptySubject", func(t *testing.T) {
		_, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SubjectOpt(""),
			schema.SchemaIdentifierOpt(new(MockSchemaIdentifier)),
		)
		require.Error(t, err)
	})

	t.Run("EncodeDecode", func(t *testing.T) {
		schemaIdentifier := new(MockSchemaIdentifier)
		subject := schema.Subject("labels-table")

		schemaIdentifier.On(
			"DetermineID", t.Context(), subject, schema.ProductSchemaTextV1,
		).Return(1, nil)

		serde, err := schema.NewSerdeProductV1(
			t.Context(),
			schema.SubjectOpt(subject),
			schema.SchemaIdentifierOpt(schemaIdentifier),
		)
		require.NoError(t, err)
		schemaIdentifier.AssertExpectations(t)

		in := schema.ProductV1{
			ProductID:      "p-1",
			Name:           "Château Margaux 2015",
			Brand:          "Château Margaux",
			SKU:            "CM2015-750",
			NetVolume:      strPtr("750ml"),
			AlcoholContent: strPtr("13.5"),
			Country:        strPtr("France"),
			UserID:         "u-1",
			CreatedAt:      1709251200000,
			UpdatedAt:      1709251260000,
		}

		data, err := serde.Encode(in)
		require.NoError(t, err)

		var out schema.ProductV1
		require.NoError(t, serde.Decode(data, &out))
		assert.Equal(t, in, out)
	})
}

func TestSerdeProductEventV1(t *testing.T) {
	schemaIdentifier := new(MockSchemaIdentifier)
	subject := schema.Subject("product_events")
	schemaIdentifier.On(
		"DetermineID", t.Context(), subject, schema.ProductEventSchemaTextV1,
	).Return(7, nil)

	serde, err := schema.NewSerdeProductEventV1(
		t.Context(),
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	require.NoError(t, err)

	t.Run("WithProduct", func(t *testing.T) {
		in := schema.ProductEventV1{
			EventID:    "e-1",
			Kind:       "created",
			ProductID:  "p-1",
			OccurredAt: 1709251200000,
			Product: &schema.ProductV1{
				ProductID: "p-1", Name: "n", Brand: "b", SKU: "s",
				Vintage: strPtr("2015"), UserID: "u-1",
			},
		}
		data, err := serde.Encode(in)
		require.NoError(t, err)

		var out schema.ProductEventV1
		require.NoError(t, serde.Decode(data, &out))
		assert.Equal(t, in, out)
	})

	t.Run("Deletion", func(t *testing.T) {
		in := schema.ProductEventV1{
			EventID: "e-2", Kind: "deleted", ProductID: "p-1",
		}
		data, err := serde.Encode(in)
		require.NoError(t, err)

		var out schema.ProductEventV1
		require.NoError(t, serde.Decode(data, &out))
		assert.Nil(t, out.Product)
		assert.Equal(t, "deleted", out.Kind)
	})
}

func TestSerdeIngredientEventV1(t *testing.T) {
	schemaIdentifier := new(MockSchemaIdentifier)
	subject := schema.Subject("ingredient_events")
	schemaIdentifier.On(
		"DetermineID", t.Context(), subject, schema.IngredientEventSchemaTextV1,
	).Return(8, nil)

	serde, err := schema.NewSerdeIngredientEventV1(
		t.Context(),
		schema.SubjectOpt(subject),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	require.NoError(t, err)

	in := schema.IngredientEventV1{
		EventID:      "e-3",
		Kind:         "updated",
		IngredientID: "i-1",
		OccurredAt:   1709251200000,
		Ingredient: &schema.IngredientV1{
			IngredientID: "i-1",
			Name:         "Sulfites",
			Category:     "Preservative",
			ENumber:      strPtr("E220"),
			Allergens:    []string{"Contains sulfites"},
			UserID:       "u-1",
		},
	}
	data, err := serde.Encode(in)
	require.NoError(t, err)

	var out schema.IngredientEventV1
	require.NoError(t, serde.Decode(data, &out))
	assert.Equal(t, in, out)
}

func TestSchemasParse(t *testing.T) {
	assert.NotPanics(t, func() { schema.ProductV1Avro() })
	assert.NotPanics(t, func() { schema.ProductEventV1Avro() })
	assert.NotPanics(t, func() { schema.IngredientEventV1Avro() })
}
