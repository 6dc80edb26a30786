package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/pkg/schema"
)

var _ port.LabelProcessor = (*LabelProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productEventCodec used for serde [schema.ProductEventV1]
type productEventCodec struct {
	serde Serde
}

func newProductEventCodec(s Serde) productEventCodec {
	return productEventCodec{s}
}

func (c productEventCodec) Encode(v any) ([]byte, error) {
	const op = "productEventCodec.Encode"
	if _, ok := v.(schema.ProductEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productEventCodec) Decode(data []byte) (any, error) {
	const op = "productEventCodec.Decode"
	var s schema.ProductEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A labelCodec used for serde [schema.ProductV1] label table values.
type labelCodec struct {
	serde Serde
}

func newLabelCodec(s Serde) labelCodec {
	return labelCodec{s}
}

func (c labelCodec) Encode(v any) ([]byte, error) {
	const op = "labelCodec.Encode"
	if _, ok := v.(schema.ProductV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c labelCodec) Decode(data []byte) (any, error) {
	const op = "labelCodec.Decode"
	var s schema.ProductV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A LabelProcessor materializes the product event stream into the
// label group table: the latest product state per id, removed on deletion.
type LabelProcessor struct {
	opPrefix string
	proc     processor
}

// LabelProcessorConfig used for setup [LabelProcessor].
//
// All fields except Options are required.
type LabelProcessorConfig struct {
	SeedBrokers []string
	InputStream string
	Group       string
	EventSerde  Serde
	LabelSerde  Serde
	Options     []goka.ProcessorOption
}

func NewLabelProcessor(config LabelProcessorConfig) (*LabelProcessor, error) {
	const op = "NewLabelProcessor"

	if config.EventSerde == nil || config.LabelSerde == nil {
		return nil, opErr(ErrTooFewOpts, op)
	}

	p := &LabelProcessor{opPrefix: "LabelProcessor"}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.InputStream),
			newProductEventCodec(config.EventSerde),
			p.processFn,
		),
		goka.Persist(newLabelCodec(config.LabelSerde)),
	)

	opts := append(
		[]goka.ProcessorOption{withNonlogProcOpt()}, config.Options...,
	)
	gp, err := goka.NewProcessor(config.SeedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	return p, nil
}

func (p *LabelProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *LabelProcessor) Close() {
	p.proc.close()
}

func (p *LabelProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "productID", ctx.Key())

	event, ok := msg.(schema.ProductEventV1)
	if !ok {
		log.Error("unexpected message type")
		return
	}

	label, remove := labelFromEvent(event)
	if remove {
		ctx.Delete()
		log.Info("label removed")
		return
	}
	if label == nil {
		log.Warn("event without product", "kind", event.Kind)
		return
	}
	ctx.SetValue(*label)
	log.Info("label stored", "kind", event.Kind)
}

// labelFromEvent returns the table value an event leads to, or remove
// for deletions.
func labelFromEvent(e schema.ProductEventV1) (label *schema.ProductV1, remove bool) {
	if domain.EventKind(e.Kind) == domain.EventDeleted {
		return nil, true
	}
	return e.Product, false
}
