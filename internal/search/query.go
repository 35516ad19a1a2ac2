package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Query holds search parameters. Zero fields are not sent.
type Query struct {
	Query                 string
	Filters               string
	Page                  int
	HitsPerPage           int
	AttributesToRetrieve  []string
	AttributesToHighlight []string
	AnalyticsTags         []string

	// Extra parameters, sent as is
	Params map[string]string
}

// Values returns the parameters as url values
func (q *Query) Values() url.Values {
	v := make(url.Values)
	if q == nil {
		return v
	}

	for k, val := range q.Params {
		v.Set(k, val)
	}
	if q.Query != "" {
		v.Set("query", q.Query)
	}
	if q.Filters != "" {
		v.Set("filters", q.Filters)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.HitsPerPage > 0 {
		v.Set("hitsPerPage", strconv.Itoa(q.HitsPerPage))
	}
	if len(q.AttributesToRetrieve) > 0 {
		v.Set("attributesToRetrieve", strings.Join(q.AttributesToRetrieve, ","))
	}
	if len(q.AttributesToHighlight) > 0 {
		v.Set("attributesToHighlight", strings.Join(q.AttributesToHighlight, ","))
	}
	if len(q.AnalyticsTags) > 0 {
		v.Set("analyticsTags", strings.Join(q.AnalyticsTags, ","))
	}
	return v
}

// Encode returns the parameters as a query string, keys sorted
func (q *Query) Encode() string {
	return q.Values().Encode()
}
