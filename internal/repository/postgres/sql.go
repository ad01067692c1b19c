package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/crudkeeper/internal/query"
)

// columnSet whitelists identifiers that may be interpolated into SQL.
type columnSet map[string]struct{}

func newColumnSet(cols []string) columnSet {
	s := make(columnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

func (s columnSet) check(c string) error {
	if _, ok := s[c]; !ok {
		return fmt.Errorf("postgres: unknown column %q", c)
	}
	return nil
}

// argList accumulates positional arguments.
type argList []any

func (a *argList) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

var errEmptyPatch = errors.New("postgres: empty patch")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where renders p as " WHERE ..." (or "" for an empty predicate).
func (s columnSet) where(p query.Predicate, args *argList) (string, error) {
	if len(p.Terms) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		if err := s.check(t.Column); err != nil {
			return "", err
		}
		var part string
		switch t.Op {
		case query.OpEq:
			part = t.Column + " = " + args.add(t.Value)
		case query.OpContains, query.OpIContains:
			str, ok := t.Value.(string)
			if !ok {
				return "", fmt.Errorf("postgres: %s on %q needs a string, got %T", t.Op, t.Column, t.Value)
			}
			op := " LIKE "
			if t.Op == query.OpIContains {
				op = " ILIKE "
			}
			part = t.Column + op + args.add("%"+likeEscaper.Replace(str)+"%")
		case query.OpGte:
			part = t.Column + " >= " + args.add(t.Value)
		case query.OpLte:
			part = t.Column + " <= " + args.add(t.Value)
		case query.OpIsNull:
			part = t.Column + " IS NULL"
		case query.OpNotNull:
			part = t.Column + " IS NOT NULL"
		default:
			return "", fmt.Errorf("postgres: unsupported op %v", t.Op)
		}
		parts = append(parts, part)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (s columnSet) orderBy(o query.Order) (string, error) {
	if err := s.check(o.Column); err != nil {
		return "", err
	}
	dir := " ASC"
	if o.Desc {
		dir = " DESC"
	}
	if o.Column == "id" {
		return " ORDER BY id" + dir, nil
	}
	return " ORDER BY " + o.Column + dir + ", id" + dir, nil
}

func (s columnSet) set(p query.Patch, args *argList) (string, error) {
	if len(p) == 0 {
		return "", errEmptyPatch
	}
	parts := make([]string, 0, len(p))
	for _, st := range p {
		if err := s.check(st.Column); err != nil {
			return "", err
		}
		parts = append(parts, st.Column+" = "+args.add(st.Value))
	}
	return strings.Join(parts, ", "), nil
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(ph, ", ")
}
