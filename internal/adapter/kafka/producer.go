package kafka

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CatalogEventsPublisher = CatalogEventsProducer{}

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CatalogEventsProducer publishes product and ingredient mutations,
// keyed by record id so one record's events stay ordered in a partition.
type CatalogEventsProducer struct {
	producer producer
	opPrefix string

	productTopic      string
	productEncoder    Encoder
	ingredientTopic   string
	ingredientEncoder Encoder

	newEventID func() string
}

// NewCatalogEventsProducer requires a client option and both event
// options.
func NewCatalogEventsProducer(
	opts ...ProducerOpt,
) (CatalogEventsProducer, error) {
	const op = "NewCatalogEventsProducer"

	if len(opts) != 3 {
		return CatalogEventsProducer{}, opErr(ErrTooFewOpts, op)
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CatalogEventsProducer{}, opErr(err, op)
		}
	}
	if options.cl == nil || options.productEncoder == nil ||
		options.ingredientEncoder == nil {
		return CatalogEventsProducer{}, opErr(ErrTooFewOpts, op)
	}

	opPrefix := "CatalogEventsProducer"
	return CatalogEventsProducer{
		producer: producer{
			opPrefix: opPrefix,
			cl:       options.cl,
		},
		opPrefix:          opPrefix,
		productTopic:      options.productTopic,
		productEncoder:    options.productEncoder,
		ingredientTopic:   options.ingredientTopic,
		ingredientEncoder: options.ingredientEncoder,
		newEventID:        uuid.NewString,
	}, nil
}

func (p CatalogEventsProducer) Close() {
	p.producer.close()
}

func (p CatalogEventsProducer) PublishProductEvent(
	ctx context.Context, e domain.ProductEvent,
) error {
	const op = "PublishProductEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := schema.ProductEventV1{
		EventID:    p.newEventID(),
		Kind:       string(e.Kind),
		ProductID:  e.ProductID,
		OccurredAt: millis(e.OccurredAt),
	}
	if e.Product != nil {
		v := productToSchemaV1(*e.Product)
		s.Product = &v
	}

	b, err := p.productEncoder.Encode(s)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{
		Topic: p.productTopic,
		Key:   []byte(e.ProductID),
		Value: b,
	}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func (p CatalogEventsProducer) PublishIngredientEvent(
	ctx context.Context, e domain.IngredientEvent,
) error {
	const op = "PublishIngredientEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := schema.IngredientEventV1{
		EventID:      p.newEventID(),
		Kind:         string(e.Kind),
		IngredientID: e.IngredientID,
		OccurredAt:   millis(e.OccurredAt),
	}
	if e.Ingredient != nil {
		v := ingredientToSchemaV1(*e.Ingredient)
		s.Ingredient = &v
	}

	b, err := p.ingredientEncoder.Encode(s)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{
		Topic: p.ingredientTopic,
		Key:   []byte(e.IngredientID),
		Value: b,
	}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
