package handlers

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type page struct {
	Limit  int64
	Offset int64
}

func parsePage(r *http.Request) page {
	p := page{Limit: defaultPageLimit}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			p.Offset = n
		}
	}
	return p
}

type envelope struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func pageLink(r *http.Request, limit, offset int64) *string {
	u := *r.URL
	q := u.Query()
	q.Set("limit", strconv.FormatInt(limit, 10))
	q.Set("offset", strconv.FormatInt(offset, 10))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// paginated builds the limit/offset envelope with relative next/previous
// links.
func paginated(r *http.Request, p page, count int64, results interface{}) envelope {
	env := envelope{Count: count, Results: results}
	if p.Offset+p.Limit < count {
		env.Next = pageLink(r, p.Limit, p.Offset+p.Limit)
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		env.Previous = pageLink(r, p.Limit, prev)
	}
	return env
}
