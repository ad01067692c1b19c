// Package memory provides in-process storage backends used by the memory driver and by tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/pagination"
	"github.com/and161185/crudkeeper/internal/query"
	"github.com/and161185/crudkeeper/internal/repository"
)

// Table implements crud.Store over a slice guarded by a RWMutex.
type Table[R model.Row] struct {
	mu     sync.RWMutex
	schema repository.Schema[R]
	index  map[string]int
	rows   []R
}

// NewTable constructs an empty table for schema.
func NewTable[R model.Row](schema repository.Schema[R]) *Table[R] {
	idx := make(map[string]int, len(schema.Columns))
	for i, c := range schema.Columns {
		idx[c] = i
	}
	return &Table[R]{schema: schema, index: idx}
}

// FindMany returns a window of rows matching where.
func (t *Table[R]) FindMany(_ context.Context, where query.Predicate, order query.Order, w pagination.Window) ([]R, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	oi, ok := t.index[order.Column]
	if !ok {
		return nil, fmt.Errorf("memory: unknown column %q", order.Column)
	}
	matched, err := t.filter(where)
	if err != nil {
		return nil, err
	}
	ii := t.index["id"]
	sort.SliceStable(matched, func(a, b int) bool {
		va, vb := t.schema.Values(matched[a]), t.schema.Values(matched[b])
		c := compareNullable(normalize(va[oi]), normalize(vb[oi]))
		if c == 0 {
			c = compareNullable(normalize(va[ii]), normalize(vb[ii]))
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	})

	if w.Skip < 0 || w.Take < 0 {
		return nil, fmt.Errorf("memory: invalid window %d/%d", w.Skip, w.Take)
	}
	if w.Skip >= len(matched) {
		return []R{}, nil
	}
	end := len(matched)
	if w.Take < end-w.Skip {
		end = w.Skip + w.Take
	}
	out := make([]R, end-w.Skip)
	copy(out, matched[w.Skip:end])
	return out, nil
}

// Count returns the number of rows matching where.
func (t *Table[R]) Count(_ context.Context, where query.Predicate) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	matched, err := t.filter(where)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// FindFirst returns the first row matching where.
func (t *Table[R]) FindFirst(_ context.Context, where query.Predicate) (R, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var zero R
	for _, r := range t.rows {
		ok, err := t.match(r, where)
		if err != nil {
			return zero, err
		}
		if ok {
			return r, nil
		}
	}
	return zero, errs.ErrNotFound
}

// Create appends row. A duplicate id is ErrAlreadyExists.
func (t *Table[R]) Create(_ context.Context, row R) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := row.Record().ID
	for _, r := range t.rows {
		if r.Record().ID == id {
			return fmt.Errorf("%s %s: %w", t.schema.Table, id, errs.ErrAlreadyExists)
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// Update applies patch to every row matching where and returns the first one.
func (t *Table[R]) Update(_ context.Context, where query.Predicate, patch query.Patch) (R, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero R
	if len(where.Terms) == 0 {
		return zero, fmt.Errorf("memory: refusing unconditioned update of %s", t.schema.Table)
	}
	if len(patch) == 0 {
		return zero, fmt.Errorf("memory: empty patch")
	}
	for _, s := range patch {
		if _, ok := t.index[s.Column]; !ok {
			return zero, fmt.Errorf("memory: unknown column %q", s.Column)
		}
	}

	var (
		first R
		found bool
	)
	for i, r := range t.rows {
		ok, err := t.match(r, where)
		if err != nil {
			return zero, err
		}
		if !ok {
			continue
		}
		next := r
		targets := t.schema.Targets(&next)
		for _, s := range patch {
			if err := assign(reflect.ValueOf(targets[t.index[s.Column]]).Elem(), s.Value); err != nil {
				return zero, fmt.Errorf("memory: set %s: %w", s.Column, err)
			}
		}
		t.rows[i] = next
		if !found {
			first, found = next, true
		}
	}
	if !found {
		return zero, errs.ErrNotFound
	}
	return first, nil
}

// Delete removes every row matching where. Zero rows is ErrNotFound.
func (t *Table[R]) Delete(_ context.Context, where query.Predicate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(where.Terms) == 0 {
		return fmt.Errorf("memory: refusing unconditioned delete from %s", t.schema.Table)
	}
	kept := t.rows[:0]
	removed := 0
	for _, r := range t.rows {
		ok, err := t.match(r, where)
		if err != nil {
			return err
		}
		if ok {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	var zero R
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = zero
	}
	t.rows = kept
	if removed == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (t *Table[R]) filter(where query.Predicate) ([]R, error) {
	out := make([]R, 0)
	for _, r := range t.rows {
		ok, err := t.match(r, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Table[R]) match(r R, where query.Predicate) (bool, error) {
	vals := t.schema.Values(r)
	for _, term := range where.Terms {
		i, ok := t.index[term.Column]
		if !ok {
			return false, fmt.Errorf("memory: unknown column %q", term.Column)
		}
		v := normalize(vals[i])
		switch term.Op {
		case query.OpIsNull:
			if v != nil {
				return false, nil
			}
		case query.OpNotNull:
			if v == nil {
				return false, nil
			}
		case query.OpContains, query.OpIContains:
			s, ok := v.(string)
			needle, nok := normalize(term.Value).(string)
			if !nok {
				return false, fmt.Errorf("memory: %s on %q needs a string, got %T", term.Op, term.Column, term.Value)
			}
			if !ok {
				return false, nil
			}
			if term.Op == query.OpIContains {
				s, needle = strings.ToLower(s), strings.ToLower(needle)
			}
			if !strings.Contains(s, needle) {
				return false, nil
			}
		case query.OpEq, query.OpGte, query.OpLte:
			c, ok := compare(v, normalize(term.Value))
			if !ok {
				return false, nil
			}
			if (term.Op == query.OpEq && c != 0) || (term.Op == query.OpGte && c < 0) || (term.Op == query.OpLte && c > 0) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("memory: unsupported op %v", term.Op)
		}
	}
	return true, nil
}

// normalize reduces a column value to nil, string, int64, float64, bool or time.Time.
func normalize(x any) any {
	if x == nil {
		return nil
	}
	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch v := rv.Interface().(type) {
	case time.Time:
		return v
	case uuid.UUID:
		return v.String()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return rv.Interface()
}

// compare orders two normalized values of compatible types.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y), true
		case float64:
			return cmpOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmpOrdered(x, y), true
		case int64:
			return cmpOrdered(x, float64(y)), true
		}
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// compareNullable sorts NULL after every value, as PostgreSQL does for ascending order.
func compareNullable(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, _ := compare(a, b)
	return c
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// assign stores v into dst, allocating pointers and converting named types as needed.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Kind() == reflect.Pointer && dst.Kind() != reflect.Pointer {
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return assign(dst, src.Elem().Interface())
	}
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		if src.Kind() == reflect.Pointer && src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	// int -> string is a legal Go conversion but never what a column update means.
	if dst.Kind() == reflect.String && src.Kind() != reflect.String {
		return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
	}
	if src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}
