// Package query turns list-endpoint query strings into a Descriptor: a set of
// predicates, an ordered list of sort keys and a page window.  Each resource
// declares which query keys it understands through a Spec; keys not in the
// Spec are ignored, while sort fields not declared sortable are rejected.
package query

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPerPage = 5
	DefaultPage    = 1
	MaxPerPage     = 100
)

// Op is the comparison applied to every token of a filter.
type Op int

const (
	// In matches the column against the set of tokens.
	In Op = iota
	// Like ORs a substring match per token.
	Like
)

// Filter maps one query key onto a column.
type Filter struct {
	Column string
	Op     Op
	Sep    string // token separator; "," when empty
}

// Spec declares the query keys a resource accepts.
type Spec struct {
	Filters  map[string]Filter
	Sortable []string
}

// Predicate is one rendered filter.
type Predicate struct {
	Column string
	Op     Op
	Values []string
}

// SortKey is one ORDER BY term.
type SortKey struct {
	Field string
	Desc  bool
}

// Descriptor is the parsed form of a list request.
type Descriptor struct {
	Predicates []Predicate
	Sort       []SortKey
	Page       int
	PerPage    int
}

// ValidationError reports a malformed query parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

// Parse builds a Descriptor from the raw query values.
func Parse(values url.Values, spec Spec) (Descriptor, error) {
	d := Descriptor{Page: DefaultPage, PerPage: DefaultPerPage}

	var err error
	if d.PerPage, err = positiveInt(values, "per_page", DefaultPerPage); err != nil {
		return Descriptor{}, err
	}
	if d.PerPage > MaxPerPage {
		return Descriptor{}, &ValidationError{Param: "per_page", Reason: fmt.Sprintf("must not exceed %d", MaxPerPage)}
	}
	if d.Page, err = positiveInt(values, "page", DefaultPage); err != nil {
		return Descriptor{}, err
	}

	// Iterate keys in a stable order so rendered SQL is deterministic.
	keys := make([]string, 0, len(spec.Filters))
	for k := range spec.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			continue
		}
		f := spec.Filters[key]
		sep := f.Sep
		if sep == "" {
			sep = ","
		}
		tokens := split(raw, sep)
		if len(tokens) == 0 {
			continue
		}
		d.Predicates = append(d.Predicates, Predicate{Column: f.Column, Op: f.Op, Values: tokens})
	}

	if d.Sort, err = ParseSort(values.Get("sort_by"), spec.Sortable); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// ParseSort reads a comma list such as "-name,age" into sort keys.  A leading
// minus means descending.  When allowed is non-nil every field must appear in it.
func ParseSort(raw string, allowed []string) ([]SortKey, error) {
	var out []SortKey
	for _, tok := range split(raw, ",") {
		key := SortKey{Field: tok}
		if strings.HasPrefix(tok, "-") {
			key = SortKey{Field: strings.TrimSpace(tok[1:]), Desc: true}
		}
		if key.Field == "" {
			continue
		}
		if allowed != nil && !slices.Contains(allowed, key.Field) {
			return nil, &ValidationError{Param: "sort_by", Reason: fmt.Sprintf("cannot sort by %q", key.Field)}
		}
		out = append(out, key)
	}
	return out, nil
}

// Offset is the number of rows skipped before the current page.
func (d Descriptor) Offset() int { return d.Page*d.PerPage - d.PerPage }

// Limit is the page size.
func (d Descriptor) Limit() int { return d.PerPage }

// TotalPages is ceil(total / per_page).
func (d Descriptor) TotalPages(total int64) int {
	if d.PerPage <= 0 {
		return 0
	}
	per := int64(d.PerPage)
	return int((total + per - 1) / per)
}

// Where applies the predicates only; used for counting.
func (d Descriptor) Where(db *gorm.DB) *gorm.DB {
	for _, p := range d.Predicates {
		col := clause.Column{Name: p.Column}
		switch p.Op {
		case In:
			vals := make([]any, len(p.Values))
			for i, v := range p.Values {
				vals[i] = v
			}
			db = db.Where(clause.IN{Column: col, Values: vals})
		case Like:
			likes := make([]clause.Expression, len(p.Values))
			for i, v := range p.Values {
				likes[i] = clause.Like{Column: col, Value: "%" + v + "%"}
			}
			// A single-element OR would be joined to earlier predicates with OR.
			if len(likes) == 1 {
				db = db.Where(likes[0])
			} else {
				db = db.Where(clause.Or(likes...))
			}
		}
	}
	return db
}

// Apply adds predicates, ordering and the page window.
func (d Descriptor) Apply(db *gorm.DB) *gorm.DB {
	db = d.Where(db)
	for _, s := range d.Sort {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
	}
	return db.Limit(d.Limit()).Offset(d.Offset())
}

func positiveInt(values url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &ValidationError{Param: key, Reason: "must be a positive integer"}
	}
	return n, nil
}

func split(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
