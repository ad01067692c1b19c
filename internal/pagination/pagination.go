// Package pagination converts page/limit requests into storage windows and summaries.
//
// Endpoints disagree on whether the first page is 0 or 1. Each endpoint declares its
// own Policy; the two conventions are deliberately kept side by side.
package pagination

import (
	"fmt"
	"math"

	"github.com/and161185/crudkeeper/internal/errs"
)

// Indexing is the page numbering convention of an endpoint.
type Indexing int

const (
	OneBased Indexing = iota
	ZeroBased
)

// First returns the number of the first page.
func (i Indexing) First() int {
	if i == ZeroBased {
		return 0
	}
	return 1
}

// ErrZeroLimit is returned when a page count is requested for a zero limit.
var ErrZeroLimit = fmt.Errorf("%w: limit must be greater than zero", errs.ErrValidation)

// Window is the skip/take pair handed to storage.
type Window struct {
	Skip int
	Take int
}

// Summary is the pagination block of a list response.
type Summary struct {
	Current int   `json:"current"`
	Limit   int   `json:"limit"`
	Records int64 `json:"records"`
	Pages   int64 `json:"pages"`
}

// Policy holds per-endpoint defaults. There is no upper cap on limit.
type Policy struct {
	Indexing     Indexing
	DefaultLimit int
}

// Resolve fills absent page/limit values with the endpoint defaults.
func (p Policy) Resolve(page, limit *int) (int, int) {
	pg := p.Indexing.First()
	if page != nil {
		pg = *page
	}
	lim := p.DefaultLimit
	if lim == 0 {
		lim = 10
	}
	if limit != nil {
		lim = *limit
	}
	return pg, lim
}

// Paginate computes the storage window for page and limit.
func Paginate(page, limit int, idx Indexing) (Window, error) {
	if limit <= 0 {
		return Window{}, ErrZeroLimit
	}
	first := idx.First()
	if page < first {
		return Window{}, errs.Invalid("page", fmt.Sprintf("must be >= %d", first))
	}
	if page-first > math.MaxInt/limit {
		return Window{}, errs.Invalid("page", "out of range")
	}
	return Window{Skip: (page - first) * limit, Take: limit}, nil
}

// Summarize builds the response summary; pages = ceil(total/limit).
func Summarize(total int64, page, limit int) (Summary, error) {
	if limit == 0 {
		return Summary{}, ErrZeroLimit
	}
	if limit < 0 {
		return Summary{}, errs.Invalid("limit", "must be positive")
	}
	l := int64(limit)
	pages := total / l
	if total%l != 0 {
		pages++
	}
	return Summary{
		Current: page,
		Limit:   limit,
		Records: total,
		Pages:   pages,
	}, nil
}
