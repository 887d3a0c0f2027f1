package apifilter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Fields: map[string]Field{
			"category": {Column: "category", Kind: KindString, Ops: []Operator{OpEq}},
			"price":    {Column: "price", Kind: KindNumber, Ops: RangeOps},
			"ratings":  {Column: "ratings", Kind: KindNumber, Ops: RangeOps},
		},
		SearchColumn: "name",
		Sortable:     map[string]string{"price": "price", "ratings": "ratings"},
		DefaultOrder: "created_at ASC, id ASC",
	}
}

func build(t *testing.T, raw string, pageSize int) Query {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return New(testSchema(), params).Search().Filters().Sort().Paginate(pageSize).Query()
}

func TestBuilder_Search(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no keyword",
			raw:       "",
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "empty keyword",
			raw:       "keyword=",
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "keyword",
			raw:       "keyword=apple",
			wantWhere: " WHERE name ILIKE $1",
			wantArgs:  []any{"%apple%"},
		},
		{
			name:      "wildcards are literal",
			raw:       "keyword=" + url.QueryEscape(`50%_off\`),
			wantWhere: " WHERE name ILIKE $1",
			wantArgs:  []any{`%50\%\_off\\%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, tt.raw, 4)
			where, args := q.Where()
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
			assert.Empty(t, q.Rejected())
		})
	}
}

func TestBuilder_Filters(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantWhere    string
		wantArgs     []any
		wantRejected []string
	}{
		{
			name:      "exact match",
			raw:       "category=Laptops",
			wantWhere: " WHERE category = $1",
			wantArgs:  []any{"Laptops"},
		},
		{
			name:      "range on numeric field",
			raw:       "price[gte]=1&price[lt]=200",
			wantWhere: " WHERE price >= $1 AND price < $2",
			wantArgs:  []any{float64(1), float64(200)},
		},
		{
			name:      "keyword and filters combined",
			raw:       "keyword=apple&category=Laptops&ratings[gte]=4",
			wantWhere: " WHERE name ILIKE $1 AND category = $2 AND ratings >= $3",
			wantArgs:  []any{"%apple%", "Laptops", float64(4)},
		},
		{
			name:         "unknown field",
			raw:          "seller_password=x",
			wantWhere:    "",
			wantRejected: []string{"seller_password"},
		},
		{
			name:         "operator not allowed on field",
			raw:          "category[gt]=A",
			wantWhere:    "",
			wantRejected: []string{"category[gt]"},
		},
		{
			name:         "unknown operator",
			raw:          "price[regex]=.*",
			wantWhere:    "",
			wantRejected: []string{"price[regex]"},
		},
		{
			name:         "operator injection attempt",
			raw:          url.Values{"price[$where]": {"1"}}.Encode(),
			wantWhere:    "",
			wantRejected: []string{"price[$where]"},
		},
		{
			name:         "non numeric value",
			raw:          "price[gte]=cheap",
			wantWhere:    "",
			wantRejected: []string{"price[gte]"},
		},
		{
			name:         "malformed key",
			raw:          url.Values{"price[gte": {"1"}, "[gt]": {"1"}}.Encode(),
			wantWhere:    "",
			wantRejected: []string{"[gt]", "price[gte"},
		},
		{
			name:         "explicit eq is not a bracket operator",
			raw:          "price[eq]=10",
			wantWhere:    "",
			wantRejected: []string{"price[eq]"},
		},
		{
			name:         "valid filters survive invalid siblings",
			raw:          "category=Books&price[gte]=abc",
			wantWhere:    " WHERE category = $1",
			wantArgs:     []any{"Books"},
			wantRejected: []string{"price[gte]"},
		},
		{
			name:      "reserved keys are not filters",
			raw:       "page=2&sort=price",
			wantWhere: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, tt.raw, 4)
			where, args := q.Where()
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
			assert.Equal(t, tt.wantRejected, q.Rejected())
		})
	}
}

func TestBuilder_Sort(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		want         string
		wantRejected []string
	}{
		{name: "default", raw: "", want: " ORDER BY created_at ASC, id ASC"},
		{name: "ascending", raw: "sort=price", want: " ORDER BY price ASC, id ASC"},
		{name: "descending", raw: "sort=-ratings", want: " ORDER BY ratings DESC, id ASC"},
		{name: "not sortable", raw: "sort=password", want: " ORDER BY created_at ASC, id ASC", wantRejected: []string{"sort"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, tt.raw, 4)
			assert.Equal(t, tt.want, q.OrderBy())
			assert.Equal(t, tt.wantRejected, q.Rejected())
		})
	}
}

func TestBuilder_Paginate(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		pageSize   int
		wantPage   int
		wantOffset int
		wantClause string
	}{
		{name: "absent", raw: "", pageSize: 4, wantPage: 1, wantOffset: 0, wantClause: " LIMIT 4 OFFSET 0"},
		{name: "page 2", raw: "page=2", pageSize: 4, wantPage: 2, wantOffset: 4, wantClause: " LIMIT 4 OFFSET 4"},
		{name: "page 3 size 10", raw: "page=3", pageSize: 10, wantPage: 3, wantOffset: 20, wantClause: " LIMIT 10 OFFSET 20"},
		{name: "non numeric", raw: "page=abc", pageSize: 4, wantPage: 1, wantOffset: 0, wantClause: " LIMIT 4 OFFSET 0"},
		{name: "zero", raw: "page=0", pageSize: 4, wantPage: 1, wantOffset: 0, wantClause: " LIMIT 4 OFFSET 0"},
		{name: "negative", raw: "page=-3", pageSize: 4, wantPage: 1, wantOffset: 0, wantClause: " LIMIT 4 OFFSET 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := build(t, tt.raw, tt.pageSize)
			assert.Equal(t, tt.wantPage, q.Page())
			assert.Equal(t, tt.pageSize, q.Limit())
			assert.Equal(t, tt.wantOffset, q.Offset())
			assert.Equal(t, tt.wantClause, q.LimitOffset())
		})
	}
}

func TestQuery_WhereExcludesPagination(t *testing.T) {
	paged := build(t, "category=Books&page=5", 4)
	unpaged := New(testSchema(), url.Values{"category": {"Books"}}).Filters().Query()

	pagedWhere, pagedArgs := paged.Where()
	unpagedWhere, unpagedArgs := unpaged.Where()

	assert.Equal(t, unpagedWhere, pagedWhere)
	assert.Equal(t, unpagedArgs, pagedArgs)
	assert.Empty(t, unpaged.LimitOffset())
}

func TestBuilder_StagesAreIndependent(t *testing.T) {
	params := url.Values{"keyword": {"apple"}, "category": {"Books"}}

	// Filters without Search ignores the keyword.
	q := New(testSchema(), params).Filters().Query()
	where, args := q.Where()
	assert.Equal(t, " WHERE category = $1", where)
	assert.Equal(t, []any{"Books"}, args)
	assert.Empty(t, q.Keyword())
	assert.Len(t, q.Conditions(), 1)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key    string
		name   string
		op     Operator
		wantOK bool
	}{
		{key: "price", name: "price", op: OpEq, wantOK: true},
		{key: "price[gt]", name: "price", op: OpGt, wantOK: true},
		{key: "price[lte]", name: "price", op: OpLte, wantOK: true},
		{key: "price[gt][lt]", wantOK: false},
		{key: "price[]", wantOK: false},
		{key: "price]", name: "price]", op: OpEq, wantOK: true},
		{key: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, op, ok := parseKey(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.name, name)
				assert.Equal(t, tt.op, op)
			}
		})
	}
}
