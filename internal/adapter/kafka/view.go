package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/pkg/schema"
)

var _ port.LabelReader = (*LabelView)(nil)

// A LabelViewConfig used for setup [LabelView].
//
// All fields except Options are required.
type LabelViewConfig struct {
	SeedBrokers []string
	Group       string
	LabelSerde  Serde
	Options     []goka.ViewOption
}

// A LabelView serves public labels from the label group table.
type LabelView struct {
	gv *goka.View
}

func NewLabelView(config LabelViewConfig) (*LabelView, error) {
	const op = "NewLabelView"

	if config.LabelSerde == nil {
		return nil, opErr(ErrTooFewOpts, op)
	}

	opts := append([]goka.ViewOption{withNonlogViewOpt()}, config.Options...)
	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		newLabelCodec(config.LabelSerde),
		opts...,
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &LabelView{gv}, nil
}

// Run blocks until ctx is done or the view fails.
func (v *LabelView) Run(ctx context.Context) {
	const op = "LabelView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
	}
}

func (v *LabelView) ReadLabel(
	ctx context.Context, productID string,
) (domain.Product, bool, error) {
	const op = "LabelView.ReadLabel"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, false, opErr(err, op)
	}

	value, err := v.gv.Get(productID)
	if err != nil {
		return domain.Product{}, false, opErr(err, op)
	}
	if value == nil {
		return domain.Product{}, false, nil
	}

	s, ok := value.(schema.ProductV1)
	if !ok {
		err := fmt.Errorf("%w: %T", ErrInvalidValueType, value)
		return domain.Product{}, false, opErr(err, op)
	}

	p, err := productFromSchemaV1(s)
	if err != nil {
		return domain.Product{}, false, opErr(err, op)
	}
	return p, true, nil
}
