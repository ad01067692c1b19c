package pagination

import (
	"errors"
	"math"
	"testing"

	"github.com/and161185/crudkeeper/internal/errs"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		idx   Indexing
		want  Window
	}{
		{"one-based first page", 1, 10, OneBased, Window{Skip: 0, Take: 10}},
		{"one-based third page", 3, 10, OneBased, Window{Skip: 20, Take: 10}},
		{"zero-based first page", 0, 10, ZeroBased, Window{Skip: 0, Take: 10}},
		{"zero-based third page", 2, 25, ZeroBased, Window{Skip: 50, Take: 25}},
		{"huge limit is not capped", 1, 100000, OneBased, Window{Skip: 0, Take: 100000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paginate(tt.page, tt.limit, tt.idx)
			if err != nil {
				t.Fatalf("Paginate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestPaginate_Errors(t *testing.T) {
	if _, err := Paginate(0, 10, OneBased); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("page 0 on one-based endpoint: %v", err)
	}
	if _, err := Paginate(-1, 10, ZeroBased); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("negative page: %v", err)
	}
	if _, err := Paginate(1, 0, OneBased); !errors.Is(err, ErrZeroLimit) {
		t.Fatalf("zero limit: %v", err)
	}
}

func TestPaginate_Overflow(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		limit int
		idx   Indexing
	}{
		{"huge page", 1<<61 + 2, 4, OneBased},
		{"huge limit on later page", 3, math.MaxInt, OneBased},
		{"both large", math.MaxInt, math.MaxInt, ZeroBased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Paginate(tt.page, tt.limit, tt.idx)
			if !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}

	// the largest representable window is still accepted
	w, err := Paginate(1, math.MaxInt, OneBased)
	if err != nil {
		t.Fatalf("first page with max limit: %v", err)
	}
	if w.Skip != 0 || w.Take != math.MaxInt {
		t.Fatalf("got %+v", w)
	}
	w, err = Paginate(math.MaxInt/2, 2, ZeroBased)
	if err != nil {
		t.Fatalf("boundary page: %v", err)
	}
	if w.Skip != math.MaxInt-1 {
		t.Fatalf("boundary skip %+v", w)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(0, 1, 10)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s != (Summary{Current: 1, Limit: 10, Records: 0, Pages: 0}) {
		t.Fatalf("empty summary: %+v", s)
	}

	s, _ = Summarize(21, 2, 10)
	if s.Pages != 3 || s.Records != 21 || s.Current != 2 {
		t.Fatalf("ceil: %+v", s)
	}
	s, _ = Summarize(20, 0, 10)
	if s.Pages != 2 {
		t.Fatalf("exact division: %+v", s)
	}
	s, _ = Summarize(3, 1, math.MaxInt)
	if s.Pages != 1 {
		t.Fatalf("max limit: %+v", s)
	}

	if _, err := Summarize(5, 1, 0); !errors.Is(err, ErrZeroLimit) || !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("zero limit must fail explicitly: %v", err)
	}
}

func TestPolicy_Resolve(t *testing.T) {
	one := Policy{Indexing: OneBased, DefaultLimit: 20}
	page, limit := one.Resolve(nil, nil)
	if page != 1 || limit != 20 {
		t.Fatalf("one-based defaults: %d %d", page, limit)
	}

	zero := Policy{Indexing: ZeroBased}
	page, limit = zero.Resolve(nil, nil)
	if page != 0 || limit != 10 {
		t.Fatalf("zero-based defaults: %d %d", page, limit)
	}

	p, l := 4, 0
	page, limit = zero.Resolve(&p, &l)
	if page != 4 || limit != 0 {
		t.Fatalf("explicit values must pass through: %d %d", page, limit)
	}
}
