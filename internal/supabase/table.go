package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query builds a PostgREST request against one table. Queries always run with
// the service role key.
type Query struct {
	client  *Client
	table   string
	columns string
	filters url.Values
	order   string
	limit   int
}

// From starts a query builder for a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, filters: url.Values{}}
}

// Select specifies columns to select or return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Neq adds a not-equal filter.
func (q *Query) Neq(column string, value any) *Query {
	q.filters.Add(column, fmt.Sprintf("neq.%v", value))
	return q
}

// In adds an in.(...) filter.
func (q *Query) In(column string, values []string) *Query {
	q.filters.Add(column, "in.("+strings.Join(values, ",")+")")
	return q
}

// Or adds a PostgREST or=(...) filter.
func (q *Query) Or(expr string) *Query {
	q.filters.Add("or", "("+expr+")")
	return q
}

// Order sets the ORDER BY clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.order = column + "." + dir
	return q
}

// Limit sets the LIMIT.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Find runs a SELECT and decodes the row array into out.
func (q *Query) Find(ctx context.Context, out any) error {
	return q.client.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + q.table,
		query:  q.params().Encode(),
		apiKey: q.client.serviceKey,
	}, out)
}

// Insert writes rows and decodes the returned representation into out.
func (q *Query) Insert(ctx context.Context, rows any, out any) error {
	return q.client.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + q.table,
		query:   q.returning().Encode(),
		apiKey:  q.client.serviceKey,
		body:    rows,
		headers: map[string]string{"Prefer": "return=representation"},
	}, out)
}

// Upsert writes rows, merging with existing rows that collide on onConflict.
func (q *Query) Upsert(ctx context.Context, rows any, onConflict string, out any) error {
	params := q.returning()
	if onConflict != "" {
		params.Set("on_conflict", onConflict)
	}
	return q.client.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + q.table,
		query:   params.Encode(),
		apiKey:  q.client.serviceKey,
		body:    rows,
		headers: map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"},
	}, out)
}

func (q *Query) params() url.Values {
	params := url.Values{}
	for k, vs := range q.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	if q.order != "" {
		params.Set("order", q.order)
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	return params
}

func (q *Query) returning() url.Values {
	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	return params
}

// ParseTimestamp parses a timestamptz as PostgREST renders it. Unparseable
// values yield the zero time.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
