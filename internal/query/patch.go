package query

import (
	"bytes"
	"encoding/json"

	"github.com/and161185/crudkeeper/internal/errs"
)

// Set assigns Value to Column. A nil Value clears a nullable column.
type Set struct {
	Column string
	Value  any
}

// Patch is an ordered list of column assignments.
type Patch []Set

// Has reports whether the patch touches column.
func (p Patch) Has(column string) bool {
	for _, s := range p {
		if s.Column == column {
			return true
		}
	}
	return false
}

// With returns a copy of p extended with column=value.
func (p Patch) With(column string, value any) Patch {
	out := make(Patch, 0, len(p)+1)
	out = append(out, p...)
	return append(out, Set{Column: column, Value: value})
}

// Optional distinguishes a field absent from a request body, an explicit null and a value.
type Optional[T any] struct {
	Set   bool // key present in the body
	Null  bool // key present with JSON null
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

// NullOf returns a present, explicitly null Optional.
func NullOf[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

// Get returns the value when present and non-null.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}

// UnmarshalJSON is only invoked when the key is present, which is what marks Set.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// MarshalJSON renders absent and null both as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Apply appends column to p when o is present. An explicit null is only accepted for nullable columns.
func Apply[T any](p *Patch, column string, o Optional[T], nullable bool) error {
	if !o.Set {
		return nil
	}
	if o.Null {
		if !nullable {
			return errs.Invalid(column, "must not be null")
		}
		*p = append(*p, Set{Column: column, Value: nil})
		return nil
	}
	*p = append(*p, Set{Column: column, Value: o.Value})
	return nil
}
