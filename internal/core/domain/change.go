package domain

const (
	CopyNameSuffix = " (Copy)"
	CopyCodeSuffix = "-COPY"
)

// A Change is one field of a partial update.
//
// Set reports whether the field was supplied at all. A supplied field
// with a nil Value clears an optional attribute.
type Change[T any] struct {
	Set   bool
	Value *T
}

func Assign[T any](v T) Change[T] {
	return Change[T]{Set: true, Value: &v}
}

func Clear[T any]() Change[T] {
	return Change[T]{Set: true}
}

func (c Change[T]) applyTo(dst *T) {
	if c.Set && c.Value != nil {
		*dst = *c.Value
	}
}

func (c Change[T]) applyToPtr(dst **T) {
	if !c.Set {
		return
	}
	if c.Value == nil {
		*dst = nil
		return
	}
	v := *c.Value
	*dst = &v
}
