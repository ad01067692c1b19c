// Package query builds storage-agnostic predicates, sort orders and partial updates.
//
// A Predicate is a conjunction of Terms. Every predicate produced by Build starts with
// the mandatory scope terms of the caller; optional request filters can narrow the
// result but can never replace or widen the scope.
package query

import "time"

// Op is a comparison operator.
type Op int

const (
	OpEq        Op = iota // column = value
	OpContains            // case-sensitive substring
	OpIContains           // case-insensitive substring
	OpGte                 // column >= value
	OpLte                 // column <= value
	OpIsNull              // column IS NULL
	OpNotNull             // column IS NOT NULL
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	case OpIContains:
		return "icontains"
	case OpGte:
		return "gte"
	case OpLte:
		return "lte"
	case OpIsNull:
		return "is_null"
	case OpNotNull:
		return "not_null"
	}
	return "unknown"
}

// Term is a single comparison against a column.
type Term struct {
	Column string
	Op     Op
	Value  any // unused for OpIsNull/OpNotNull
}

// Predicate is a conjunction of terms. The zero value matches every row.
type Predicate struct {
	Terms []Term
}

// And returns a copy of p extended with terms.
func (p Predicate) And(terms ...Term) Predicate {
	out := make([]Term, 0, len(p.Terms)+len(terms))
	out = append(out, p.Terms...)
	out = append(out, terms...)
	return Predicate{Terms: out}
}

// DeletedAtColumn is the soft-delete marker column.
const DeletedAtColumn = "deleted_at"

// Scope is the mandatory ownership/tenant constraint of a query.
type Scope struct {
	Column         string // empty means unscoped (privileged access)
	Value          any
	SoftDelete     bool // table carries deleted_at
	IncludeDeleted bool
}

// Terms returns the mandatory terms for s.
func (s Scope) Terms() []Term {
	var out []Term
	if s.Column != "" {
		out = append(out, Term{Column: s.Column, Op: OpEq, Value: s.Value})
	}
	if s.SoftDelete && !s.IncludeDeleted {
		out = append(out, Term{Column: DeletedAtColumn, Op: OpIsNull})
	}
	return out
}

// Build merges the scope constraint with optional filter terms.
// Optional terms on the scope column or on deleted_at are discarded.
func Build(scope Scope, optional ...[]Term) Predicate {
	p := Predicate{Terms: scope.Terms()}
	for _, group := range optional {
		for _, t := range group {
			if t.Column == DeletedAtColumn && scope.SoftDelete {
				continue
			}
			if scope.Column != "" && t.Column == scope.Column {
				continue
			}
			p.Terms = append(p.Terms, t)
		}
	}
	return p
}

// ByID is a convenience term for primary key lookups.
func ByID(id any) Term { return Term{Column: "id", Op: OpEq, Value: id} }

// Eq yields an equality term when v is non-nil.
func Eq[T any](column string, v *T) []Term {
	if v == nil {
		return nil
	}
	return []Term{{Column: column, Op: OpEq, Value: *v}}
}

// Contains yields a substring term when v is non-nil and non-empty.
func Contains(column string, v *string, fold bool) []Term {
	if v == nil || *v == "" {
		return nil
	}
	op := OpContains
	if fold {
		op = OpIContains
	}
	return []Term{{Column: column, Op: op, Value: *v}}
}

// Range yields gte/lte terms for the supplied bounds only.
func Range(column string, from, to *time.Time) []Term {
	var out []Term
	if from != nil {
		out = append(out, Term{Column: column, Op: OpGte, Value: *from})
	}
	if to != nil {
		out = append(out, Term{Column: column, Op: OpLte, Value: *to})
	}
	return out
}

// IntRange is Range for integer columns.
func IntRange(column string, from, to *int) []Term {
	var out []Term
	if from != nil {
		out = append(out, Term{Column: column, Op: OpGte, Value: *from})
	}
	if to != nil {
		out = append(out, Term{Column: column, Op: OpLte, Value: *to})
	}
	return out
}

// Null filters a nullable column explicitly: true → IS NULL, false → IS NOT NULL.
func Null(column string, isNull *bool) []Term {
	if isNull == nil {
		return nil
	}
	if *isNull {
		return []Term{{Column: column, Op: OpIsNull}}
	}
	return []Term{{Column: column, Op: OpNotNull}}
}
