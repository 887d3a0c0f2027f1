// Package apifilter turns catalogue query strings into SQL filter, sort and
// pagination fragments.
//
// Every filterable field must be declared in a Schema together with the
// comparison operators it accepts. Query parameters are parsed structurally
// (field=value, field[op]=value) and checked against the schema before any
// SQL is produced; anything the schema does not allow is skipped and
// reported through Query.Rejected rather than being passed to the database.
package apifilter

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved parameter names that are never treated as field filters.
const (
	ParamKeyword = "keyword"
	ParamPage    = "page"
	ParamSort    = "sort"
)

// Operator is a comparison applied to a field.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

var sqlOperators = map[Operator]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// RangeOps is the operator set for numeric fields.
var RangeOps = []Operator{OpEq, OpGt, OpGte, OpLt, OpLte}

// Kind is the value type of a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// Field declares a filterable field.
type Field struct {
	Column string
	Kind   Kind
	Ops    []Operator
}

func (f Field) allows(op Operator) bool {
	for _, o := range f.Ops {
		if o == op {
			return true
		}
	}
	return false
}

// Schema is the allow-list for one collection.
type Schema struct {
	// Fields maps a query parameter name to its column.
	Fields map[string]Field
	// SearchColumn is matched against the keyword parameter.
	SearchColumn string
	// Sortable maps a sort parameter value to a column.
	Sortable map[string]string
	// DefaultOrder is used when no valid sort parameter is given.
	DefaultOrder string
}

// Condition is one parsed and validated filter.
type Condition struct {
	Column string
	Op     Operator
	Value  any
}

// Query is the composed filter, sort and page. It is only executed by a repository.
type Query struct {
	keyword    string
	search     string
	conditions []Condition
	orderBy    string
	page       int
	limit      int
	offset     int
	rejected   []string
}

// Builder composes a Query from request parameters.
type Builder struct {
	schema Schema
	params url.Values
	query  Query
}

// New creates a builder over params. Nothing is applied until the stage methods are called.
func New(schema Schema, params url.Values) *Builder {
	return &Builder{
		schema: schema,
		params: params,
		query: Query{
			search:  schema.SearchColumn,
			orderBy: schema.DefaultOrder,
			page:    1,
		},
	}
}

// Search restricts results to records whose search column contains the keyword,
// case-insensitively.
func (b *Builder) Search() *Builder {
	b.query.keyword = strings.TrimSpace(b.params.Get(ParamKeyword))
	return b
}

// Filters applies every non-reserved parameter that the schema allows.
func (b *Builder) Filters() *Builder {
	keys := make([]string, 0, len(b.params))
	for key := range b.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == ParamKeyword || key == ParamPage || key == ParamSort {
			continue
		}

		name, op, ok := parseKey(key)
		if !ok {
			b.reject(key)
			continue
		}

		field, ok := b.schema.Fields[name]
		if !ok || !field.allows(op) {
			b.reject(key)
			continue
		}

		value, ok := parseValue(field.Kind, b.params.Get(key))
		if !ok {
			b.reject(key)
			continue
		}

		b.query.conditions = append(b.query.conditions, Condition{
			Column: field.Column,
			Op:     op,
			Value:  value,
		})
	}

	return b
}

// Sort applies the sort parameter ("price" ascending, "-price" descending) when it names
// a sortable field.
func (b *Builder) Sort() *Builder {
	raw := strings.TrimSpace(b.params.Get(ParamSort))
	if raw == "" {
		return b
	}

	direction := "ASC"
	name := raw
	if strings.HasPrefix(raw, "-") {
		direction = "DESC"
		name = raw[1:]
	}

	column, ok := b.schema.Sortable[name]
	if !ok {
		b.reject(ParamSort)
		return b
	}

	b.query.orderBy = fmt.Sprintf("%s %s, id ASC", column, direction)
	return b
}

// Paginate limits results to one page of pageSize records. The page number
// defaults to 1 when it is absent, not a number or below 1.
func (b *Builder) Paginate(pageSize int) *Builder {
	page, err := strconv.Atoi(b.params.Get(ParamPage))
	if err != nil || page < 1 {
		page = 1
	}

	b.query.page = page
	b.query.limit = pageSize
	b.query.offset = pageSize * (page - 1)
	return b
}

// Query returns the composed query.
func (b *Builder) Query() Query {
	return b.query
}

func (b *Builder) reject(key string) {
	b.query.rejected = append(b.query.rejected, key)
}

// parseKey splits "price[gte]" into ("price", OpGte) and "category" into ("category", OpEq).
func parseKey(key string) (string, Operator, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		if key == "" {
			return "", "", false
		}
		return key, OpEq, true
	}

	if open == 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}

	name := key[:open]
	op := Operator(key[open+1 : len(key)-1])
	if _, ok := sqlOperators[op]; !ok || op == OpEq {
		return "", "", false
	}

	return name, op, true
}

func parseValue(kind Kind, raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	switch kind {
	case KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	default:
		return raw, true
	}
}

// Keyword returns the search keyword, or "" when no search applies.
func (q Query) Keyword() string { return q.keyword }

// Conditions returns the validated field filters.
func (q Query) Conditions() []Condition { return q.conditions }

// Rejected returns the parameter names that were not applied.
func (q Query) Rejected() []string { return q.rejected }

// Page returns the 1-based page number.
func (q Query) Page() int { return q.page }

// Limit returns the page size, or 0 when the query is not paginated.
func (q Query) Limit() int { return q.limit }

// Offset returns the number of records skipped before the page.
func (q Query) Offset() int { return q.offset }

// Where renders the search and filter conditions as a WHERE clause with
// positional arguments starting at $1. Pagination is not included, so the
// same clause serves the total count.
func (q Query) Where() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if q.keyword != "" && q.search != "" {
		args = append(args, "%"+escapeLike(q.keyword)+"%")
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", q.search, len(args)))
	}

	for _, c := range q.conditions {
		args = append(args, c.Value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Column, sqlOperators[c.Op], len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// OrderBy renders the ORDER BY clause.
func (q Query) OrderBy() string {
	if q.orderBy == "" {
		return ""
	}
	return " ORDER BY " + q.orderBy
}

// LimitOffset renders the pagination clause, or "" when not paginated.
func (q Query) LimitOffset() string {
	if q.limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", q.limit, q.offset)
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
