package topgg

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// Filter builds the field-match expression understood by the search
// endpoint. Calls append "field: value" pairs; an empty filter matches
// everything.
type Filter struct {
	parts []string
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) add(field string, value any) *Filter {
	f.parts = append(f.parts, fmt.Sprintf("%s: %v", field, value))
	return f
}

// Username matches bots by username.
func (f *Filter) Username(username string) *Filter {
	return f.add("username", username)
}

// Discriminator matches bots by discriminator.
func (f *Filter) Discriminator(discriminator string) *Filter {
	return f.add("discriminator", discriminator)
}

// Prefix matches bots by command prefix.
func (f *Filter) Prefix(prefix string) *Filter {
	return f.add("prefix", prefix)
}

// ID matches a bot by its Discord ID.
func (f *Filter) ID(id Snowflake) *Filter {
	return f.add("id", id)
}

// Votes matches bots by vote count.
func (f *Filter) Votes(votes int) *Filter {
	return f.add("points", votes)
}

// MonthlyVotes matches bots by votes received this month.
func (f *Filter) MonthlyVotes(votes int) *Filter {
	return f.add("monthlyPoints", votes)
}

// Certified matches bots by certification status.
func (f *Filter) Certified(certified bool) *Filter {
	return f.add("certifiedBot", certified)
}

// Vanity matches bots by vanity slug.
func (f *Filter) Vanity(vanity string) *Filter {
	return f.add("vanity", vanity)
}

// String returns the assembled search expression.
func (f *Filter) String() string {
	return strings.Join(f.parts, " ")
}

const (
	maxLimit  = 500
	maxOffset = 499
)

// Query holds search and pagination parameters for GetBots. The zero value
// asks for the service's default page.
type Query struct {
	Search string `url:"search,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	Offset int    `url:"offset,omitempty"`
	Sort   string `url:"sort,omitempty"`
	Fields string `url:"fields,omitempty"`
}

// Search returns a query matching bots whose username contains term.
func Search(term string) *Query {
	return &Query{Search: NewFilter().Username(term).String()}
}

// WithFilter sets the search expression.
func (q *Query) WithFilter(f *Filter) *Query {
	q.Search = f.String()
	return q
}

// Values encodes the query as URL parameters, clamping the page size and
// offset to the bounds the service enforces.
func (q *Query) Values() (url.Values, error) {
	clamped := *q
	if clamped.Limit > maxLimit {
		clamped.Limit = maxLimit
	}
	if clamped.Offset > maxOffset {
		clamped.Offset = maxOffset
	}
	values, err := query.Values(clamped)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	return values, nil
}
