package query

import "strings"

// Order is a single sort key. Stores append the primary key as a tiebreaker.
type Order struct {
	Column string
	Desc   bool
}

// DefaultOrder is used whenever a request names no usable sort key.
var DefaultOrder = Order{Column: "created_at", Desc: true}

// Sorts is the whitelist of sortable request keys mapped to columns.
type Sorts struct {
	Allowed map[string]string
	Default Order
}

// Resolve maps a request sort key and direction to an Order.
// Unknown keys and directions fall back to the default instead of failing.
func (s Sorts) Resolve(key, dir string) Order {
	def := s.Default
	if def.Column == "" {
		def = DefaultOrder
	}
	col, ok := s.Allowed[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return def
	}
	o := Order{Column: col, Desc: def.Desc}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "asc":
		o.Desc = false
	case "desc":
		o.Desc = true
	}
	return o
}
