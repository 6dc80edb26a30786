package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl                ProducerClient
	productTopic      string
	productEncoder    Encoder
	ingredientTopic   string
	ingredientEncoder Encoder
}

// ProducerClientOpt dials the seed brokers and pings them once. A nil
// tlsConfig means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kOpts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		}
		if tlsConfig != nil {
			kOpts = append(kOpts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerCustomClientOpt sets an already constructed client.
func ProducerCustomClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProductEventsOpt(topic string, encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if topic == "" {
			return errors.New("product events topic is empty string")
		}
		if encoder == nil {
			return errors.New("product events encoder is nil")
		}
		opts.productTopic = topic
		opts.productEncoder = encoder
		return nil
	}
}

func IngredientEventsOpt(topic string, encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if topic == "" {
			return errors.New("ingredient events topic is empty string")
		}
		if encoder == nil {
			return errors.New("ingredient events encoder is nil")
		}
		opts.ingredientTopic = topic
		opts.ingredientEncoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// ApplyTLS switches goka's global sarama config to TLS. Processors and
// views created afterwards use it.
func ApplyTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func withNonlogViewOpt() goka.ViewOption {
	return goka.WithViewLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func productToSchemaV1(v domain.Product) (s schema.ProductV1) {
	s.ProductID = v.ID
	s.Name = v.Name
	s.Brand = v.Brand
	s.SKU = v.SKU
	s.NetVolume = v.NetVolume
	s.Vintage = v.Vintage
	s.Type = v.Type
	s.SugarContent = v.SugarContent
	s.Appellation = v.Appellation
	s.Country = v.Country
	s.Description = v.Description
	s.ProducerName = v.ProducerName
	s.ProducerAddress = v.ProducerAddress
	s.UserID = v.UserID
	s.CreatedAt = millis(v.CreatedAt)
	s.UpdatedAt = millis(v.UpdatedAt)

	if v.AlcoholContent.Valid {
		ac := v.AlcoholContent.Decimal.String()
		s.AlcoholContent = &ac
	}
	return
}

func productFromSchemaV1(s schema.ProductV1) (domain.Product, error) {
	v := domain.Product{
		ID: s.ProductID,
		ProductFields: domain.ProductFields{
			Name:            s.Name,
			Brand:           s.Brand,
			SKU:             s.SKU,
			NetVolume:       s.NetVolume,
			Vintage:         s.Vintage,
			Type:            s.Type,
			SugarContent:    s.SugarContent,
			Appellation:     s.Appellation,
			Country:         s.Country,
			Description:     s.Description,
			ProducerName:    s.ProducerName,
			ProducerAddress: s.ProducerAddress,
		},
		UserID:    s.UserID,
		CreatedAt: fromMillis(s.CreatedAt),
		UpdatedAt: fromMillis(s.UpdatedAt),
	}

	if s.AlcoholContent != nil {
		d, err := decimal.NewFromString(*s.AlcoholContent)
		if err != nil {
			return domain.Product{}, err
		}
		v.AlcoholContent = decimal.NewNullDecimal(d)
	}
	return v, nil
}

func ingredientToSchemaV1(v domain.Ingredient) (s schema.IngredientV1) {
	s.IngredientID = v.ID
	s.Name = v.Name
	s.Category = v.Category
	s.ENumber = v.ENumber
	s.Description = v.Description
	s.UserID = v.UserID
	s.CreatedAt = millis(v.CreatedAt)
	s.UpdatedAt = millis(v.UpdatedAt)

	s.Allergens = make([]string, len(v.Allergens))
	copy(s.Allergens, v.Allergens)
	return
}

// GroupTableTopic returns the compacted topic goka keeps group's table in.
func GroupTableTopic(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
