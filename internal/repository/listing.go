package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultPageLimit = 10
	defaultPage      = 1
)

// ListOptions selects paginated listing. The zero value means "no options"
// and yields a plain list.
type ListOptions struct {
	Limit int64  `json:"limit,omitempty"`
	Page  int64  `json:"page,omitempty"`
	Sort  string `json:"sort,omitempty"` // serialized sort document, e.g. {"name":1}

	// populate is merged in by Search.
	populate []Populate
}

// IsZero reports whether no option is set.
func (o ListOptions) IsZero() bool {
	return o.Limit == 0 && o.Page == 0 && o.Sort == "" && len(o.populate) == 0
}

// ParseListOptions decodes the serialized form of ListOptions. An empty
// string yields the zero value.
func ParseListOptions(raw string) (ListOptions, error) {
	var o ListOptions
	if strings.TrimSpace(raw) == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return o, fmt.Errorf("parse list options: %w", err)
	}
	return o, nil
}

// sortDoc parses Sort, falling back to def when unset.
func (o ListOptions) sortDoc(def bson.D) (bson.D, error) {
	if strings.TrimSpace(o.Sort) == "" {
		return def, nil
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(o.Sort), false, &d); err != nil {
		return nil, fmt.Errorf("parse sort %q: %w", o.Sort, err)
	}
	return d, nil
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Docs          []T    `json:"docs"`
	TotalDocs     int64  `json:"totalDocs"`
	Limit         int64  `json:"limit"`
	Page          int64  `json:"page"`
	TotalPages    int64  `json:"totalPages"`
	PagingCounter int64  `json:"pagingCounter"`
	HasPrevPage   bool   `json:"hasPrevPage"`
	HasNextPage   bool   `json:"hasNextPage"`
	PrevPage      *int64 `json:"prevPage"`
	NextPage      *int64 `json:"nextPage"`
}

func newPage[T any](docs []T, total, limit, page int64) *Page[T] {
	p := &Page[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         limit,
		Page:          page,
		TotalPages:    1,
		PagingCounter: (page-1)*limit + 1,
	}
	if total > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	if page > 1 {
		prev := page - 1
		p.HasPrevPage = true
		p.PrevPage = &prev
	}
	if page < p.TotalPages {
		next := page + 1
		p.HasNextPage = true
		p.NextPage = &next
	}
	return p
}

// Listing is the result of FindAll and Search: a plain list when no options
// were given, one page otherwise.
type Listing[T any] struct {
	Items []T
	Page  *Page[T]
}

// Paginated reports whether the listing holds a page.
func (l *Listing[T]) Paginated() bool { return l != nil && l.Page != nil }

// Collection returns the listing as the list a response carries: the items
// themselves, or a single-element list holding the page.
func (l *Listing[T]) Collection() any {
	if l == nil {
		return []T{}
	}
	if l.Page != nil {
		return []*Page[T]{l.Page}
	}
	if l.Items == nil {
		return []T{}
	}
	return l.Items
}
