// Package validate turns raw write payloads into typed domain values.
//
// Only the shape of a payload is checked: required fields, primitive
// types and unknown keys. Every violation is collected into a single
// [*domain.ValidationError].
package validate

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Keys that clients echo back from read responses. They are never
// writable and are dropped silently.
var readOnlyKeys = map[string]struct{}{
	"id":        {},
	"userId":    {},
	"createdAt": {},
	"updatedAt": {},
}

type field struct {
	name     string
	required bool
}

// payload walks a raw map against a field table, recording violations.
type payload struct {
	raw    map[string]any
	fields []field
	errs   *domain.ValidationError
	// partial is true for updates: nothing is required.
	partial bool
}

func newPayload(raw map[string]any, fields []field, partial bool) *payload {
	p := &payload{
		raw:     raw,
		fields:  fields,
		errs:    new(domain.ValidationError),
		partial: partial,
	}
	p.checkUnknown()
	return p
}

func (p *payload) checkUnknown() {
	known := make(map[string]struct{}, len(p.fields))
	for _, f := range p.fields {
		known[f.name] = struct{}{}
	}

	var unknown []string
	for k := range p.raw {
		if _, ok := known[k]; ok {
			continue
		}
		if _, ok := readOnlyKeys[k]; ok {
			continue
		}
		unknown = append(unknown, k)
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		p.errs.Add(k, domain.ReasonUnknownField)
	}
}

func (p *payload) lookup(name string) field {
	for _, f := range p.fields {
		if f.name == name {
			return f
		}
	}
	panic("validate: undeclared field " + name) // develop mistake
}

// requiredString reads a field that must hold a non-blank string.
func (p *payload) requiredString(name string) domain.Change[string] {
	v, ok := p.raw[name]
	if !ok {
		if !p.partial && p.lookup(name).required {
			p.errs.Add(name, domain.ReasonRequired)
		}
		return domain.Change[string]{}
	}
	if v == nil {
		if p.partial {
			p.errs.Add(name, domain.ReasonNotNull)
		} else {
			p.errs.Add(name, domain.ReasonRequired)
		}
		return domain.Change[string]{}
	}
	s, ok := v.(string)
	if !ok {
		p.errs.Add(name, domain.ReasonString)
		return domain.Change[string]{}
	}
	if strings.TrimSpace(s) == "" {
		p.errs.Add(name, domain.ReasonRequired)
		return domain.Change[string]{}
	}
	return domain.Assign(s)
}

// requireText checks a required field of an already typed value.
func requireText(errs *domain.ValidationError, name, v string) {
	if strings.TrimSpace(v) == "" {
		errs.Add(name, domain.ReasonRequired)
	}
}

// optionalString reads a nullable string. Null and "" clear the value.
func (p *payload) optionalString(name string) domain.Change[string] {
	v, ok := p.raw[name]
	if !ok {
		return domain.Change[string]{}
	}
	if v == nil {
		return domain.Clear[string]()
	}
	s, ok := v.(string)
	if !ok {
		p.errs.Add(name, domain.ReasonString)
		return domain.Change[string]{}
	}
	if s == "" {
		return domain.Clear[string]()
	}
	return domain.Assign(s)
}

func (p *payload) optionalNumber(name string) domain.Change[decimal.Decimal] {
	v, ok := p.raw[name]
	if !ok {
		return domain.Change[decimal.Decimal]{}
	}
	if v == nil {
		return domain.Clear[decimal.Decimal]()
	}
	d, ok := toDecimal(v)
	if !ok {
		p.errs.Add(name, domain.ReasonNumber)
		return domain.Change[decimal.Decimal]{}
	}
	return domain.Assign(d)
}

// optionalStringList reads a nullable list of strings. Null and an empty
// list clear the value.
func (p *payload) optionalStringList(name string) domain.Change[[]string] {
	v, ok := p.raw[name]
	if !ok {
		return domain.Change[[]string]{}
	}
	if v == nil {
		return domain.Clear[[]string]()
	}

	var out []string
	switch vs := v.(type) {
	case []string:
		out = append(out, vs...)
	case []any:
		out = make([]string, 0, len(vs))
		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				p.errs.Add(name, domain.ReasonStringArray)
				return domain.Change[[]string]{}
			}
			out = append(out, s)
		}
	default:
		p.errs.Add(name, domain.ReasonStringArray)
		return domain.Change[[]string]{}
	}

	if len(out) == 0 {
		return domain.Clear[[]string]()
	}
	return domain.Assign(out)
}

func (p *payload) err() error {
	return p.errs.Err()
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return toDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case int32:
		return decimal.NewFromInt32(n), true
	case uint64:
		if n > math.MaxInt64 {
			d, err := decimal.NewFromString(strconv.FormatUint(n, 10))
			return d, err == nil
		}
		return decimal.NewFromInt(int64(n)), true
	case decimal.Decimal:
		return n, true
	}
	return decimal.Decimal{}, false
}
