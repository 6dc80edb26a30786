package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type clientMock struct {
	mock.Mock
}

func (m *clientMock) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *clientMock) Close() {
	m.Called()
}

// recordingEncoder records the values it was asked to encode.
type recordingEncoder struct {
	values []any
	err    error
}

func (e *recordingEncoder) Encode(v any) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.values = append(e.values, v)
	return []byte("encoded"), nil
}

func strPtr(s string) *string { return &s }

func sampleProduct() domain.Product {
	return domain.Product{
		ID: "p-1",
		ProductFields: domain.ProductFields{
			Name:           "Château Margaux 2015",
			Brand:          "Château Margaux",
			SKU:            "CM2015-750",
			NetVolume:      strPtr("750ml"),
			Vintage:        strPtr("2015"),
			AlcoholContent: decimal.NewNullDecimal(decimal.RequireFromString("13.5")),
			Country:        strPtr("France"),
		},
		UserID:    "u-1",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

func newTestProducer(
	t *testing.T, cl ProducerClient, pe, ie Encoder,
) CatalogEventsProducer {
	t.Helper()
	p, err := NewCatalogEventsProducer(
		ProducerCustomClientOpt(cl),
		ProductEventsOpt("product_events", pe),
		IngredientEventsOpt("ingredient_events", ie),
	)
	require.NoError(t, err)
	p.newEventID = func() string { return "event-1" }
	return p
}

func TestNewCatalogEventsProducer(t *testing.T) {
	t.Run("TooFewOpts", func(t *testing.T) {
		_, err := NewCatalogEventsProducer(
			ProducerCustomClientOpt(new(clientMock)),
		)
		assert.ErrorIs(t, err, ErrTooFewOpts)
	})

	t.Run("EmptyTopic", func(t *testing.T) {
		_, err := NewCatalogEventsProducer(
			ProducerCustomClientOpt(new(clientMock)),
			ProductEventsOpt("", new(recordingEncoder)),
			IngredientEventsOpt("ingredient_events", new(recordingEncoder)),
		)
		assert.Error(t, err)
	})
}

func TestPublishProductEvent(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		cl := new(clientMock)
		pe := new(recordingEncoder)
		p := newTestProducer(t, cl, pe, new(recordingEncoder))

		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(func(rs []*kgo.Record) bool {
			return len(rs) == 1 &&
				rs[0].Topic == "product_events" &&
				string(rs[0].Key) == "p-1" &&
				string(rs[0].Value) == "encoded"
		})).Return(kgo.ProduceResults{})

		product := sampleProduct()
		err := p.PublishProductEvent(t.Context(), domain.ProductEvent{
			Kind:       domain.EventCreated,
			ProductID:  product.ID,
			Product:    &product,
			OccurredAt: product.CreatedAt,
		})
		require.NoError(t, err)
		cl.AssertExpectations(t)

		require.Len(t, pe.values, 1)
		s, ok := pe.values[0].(schema.ProductEventV1)
		require.True(t, ok)
		assert.Equal(t, "event-1", s.EventID)
		assert.Equal(t, "created", s.Kind)
		assert.Equal(t, product.CreatedAt.UnixMilli(), s.OccurredAt)
		require.NotNil(t, s.Product)
		require.NotNil(t, s.Product.AlcoholContent)
		assert.Equal(t, "13.5", *s.Product.AlcoholContent)
	})

	t.Run("Deleted", func(t *testing.T) {
		cl := new(clientMock)
		pe := new(recordingEncoder)
		p := newTestProducer(t, cl, pe, new(recordingEncoder))
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{})

		err := p.PublishProductEvent(t.Context(), domain.ProductEvent{
			Kind: domain.EventDeleted, ProductID: "p-1",
		})
		require.NoError(t, err)

		s := pe.values[0].(schema.ProductEventV1)
		assert.Nil(t, s.Product)
	})

	t.Run("BrokerError", func(t *testing.T) {
		cl := new(clientMock)
		p := newTestProducer(t, cl, new(recordingEncoder), new(recordingEncoder))
		brokerErr := errors.New("not leader for partition")
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: brokerErr}})

		err := p.PublishProductEvent(t.Context(), domain.ProductEvent{
			Kind: domain.EventDeleted, ProductID: "p-1",
		})
		assert.ErrorIs(t, err, brokerErr)
	})

	t.Run("EncodeError", func(t *testing.T) {
		cl := new(clientMock)
		encErr := errors.New("schema mismatch")
		p := newTestProducer(
			t, cl, &recordingEncoder{err: encErr}, new(recordingEncoder),
		)
		err := p.PublishProductEvent(t.Context(), domain.ProductEvent{
			Kind: domain.EventDeleted, ProductID: "p-1",
		})
		assert.ErrorIs(t, err, encErr)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})
}

func TestPublishIngredientEvent(t *testing.T) {
	cl := new(clientMock)
	ie := new(recordingEncoder)
	p := newTestProducer(t, cl, new(recordingEncoder), ie)

	cl.On("ProduceSync", mock.Anything, mock.MatchedBy(func(rs []*kgo.Record) bool {
		return len(rs) == 1 &&
			rs[0].Topic == "ingredient_events" &&
			string(rs[0].Key) == "i-1"
	})).Return(kgo.ProduceResults{})

	ingredient := domain.Ingredient{
		ID: "i-1",
		IngredientFields: domain.IngredientFields{
			Name: "Citric Acid", Category: "Acidifier",
		},
	}
	err := p.PublishIngredientEvent(t.Context(), domain.IngredientEvent{
		Kind:         domain.EventUpdated,
		IngredientID: ingredient.ID,
		Ingredient:   &ingredient,
	})
	require.NoError(t, err)
	cl.AssertExpectations(t)

	s := ie.values[0].(schema.IngredientEventV1)
	require.NotNil(t, s.Ingredient)
	assert.NotNil(t, s.Ingredient.Allergens)
	assert.Empty(t, s.Ingredient.Allergens)
}

func TestCatalogEventsProducerClose(t *testing.T) {
	cl := new(clientMock)
	cl.On("Close").Return()
	p := newTestProducer(t, cl, new(recordingEncoder), new(recordingEncoder))
	p.Close()
	cl.AssertExpectations(t)
}

func TestProductSchemaConversion(t *testing.T) {
	t.Run("KeepsLabelFields", func(t *testing.T) {
		in := sampleProduct()
		out, err := productFromSchemaV1(productToSchemaV1(in))
		require.NoError(t, err)
		assert.True(t, in.AlcoholContent.Decimal.Equal(out.AlcoholContent.Decimal))
		out.AlcoholContent = in.AlcoholContent
		assert.Equal(t, in, out)
	})

	t.Run("NullAlcoholContent", func(t *testing.T) {
		in := sampleProduct()
		in.AlcoholContent = decimal.NullDecimal{}
		s := productToSchemaV1(in)
		assert.Nil(t, s.AlcoholContent)

		out, err := productFromSchemaV1(s)
		require.NoError(t, err)
		assert.False(t, out.AlcoholContent.Valid)
	})

	t.Run("BrokenAlcoholContent", func(t *testing.T) {
		s := productToSchemaV1(sampleProduct())
		s.AlcoholContent = strPtr("thirteen")
		_, err := productFromSchemaV1(s)
		assert.Error(t, err)
	})
}

func TestLabelFromEvent(t *testing.T) {
	product := productToSchemaV1(sampleProduct())

	tests := []struct {
		name       string
		event      schema.ProductEventV1
		wantLabel  *schema.ProductV1
		wantRemove bool
	}{
		{
			name:      "Created",
			event:     schema.ProductEventV1{Kind: "created", Product: &product},
			wantLabel: &product,
		},
		{
			name:      "Updated",
			event:     schema.ProductEventV1{Kind: "updated", Product: &product},
			wantLabel: &product,
		},
		{
			name:       "Deleted",
			event:      schema.ProductEventV1{Kind: "deleted"},
			wantRemove: true,
		},
		{
			name:  "MissingProduct",
			event: schema.ProductEventV1{Kind: "updated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, remove := labelFromEvent(tt.event)
			assert.Equal(t, tt.wantRemove, remove)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestCodecsRejectForeignValues(t *testing.T) {
	_, err := newProductEventCodec(nil).Encode(schema.ProductV1{})
	assert.ErrorIs(t, err, ErrInvalidValueType)

	_, err = newLabelCodec(nil).Encode(schema.ProductEventV1{})
	assert.ErrorIs(t, err, ErrInvalidValueType)
}
