package render

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// MaxPage is the highest page number PageParam returns.
const MaxPage = 10000

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int
	TotalPages int
	Total      int
	baseURL    string
	query      url.Values
}

// NewPagination builds the pager for page (1-based) of total items split
// into pages of size. baseURL is the listing path; extra query parameters
// such as a search term are carried into the page links.
func NewPagination(page, size, total int, baseURL string, query url.Values) *Pagination {
	pages := 1
	if size > 0 && total > 0 {
		pages = (total + size - 1) / size
	}
	if page < 1 {
		page = 1
	}
	return &Pagination{Page: page, TotalPages: pages, Total: total, baseURL: baseURL, query: query}
}

// OutOfRange reports a page past the last one. The first page is always
// in range, even for an empty listing.
func (p *Pagination) OutOfRange() bool { return p.Page > p.TotalPages }

func (p *Pagination) HasPrev() bool { return p.Page > 1 }
func (p *Pagination) HasNext() bool { return p.Page < p.TotalPages }

func (p *Pagination) PrevURL() string { return p.url(p.Page - 1) }
func (p *Pagination) NextURL() string { return p.url(p.Page + 1) }

func (p *Pagination) url(page int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	} else {
		q.Del("page")
	}
	if len(q) == 0 {
		return p.baseURL
	}
	return p.baseURL + "?" + q.Encode()
}

// PageParam parses the ?page= value, defaulting to 1 and capped at
// MaxPage.
func PageParam(v string) int {
	n, err := strconv.Atoi(v)
	switch {
	case err != nil && errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(v, "-"):
		return MaxPage
	case err != nil || n < 1:
		return 1
	case n > MaxPage:
		return MaxPage
	}
	return n
}
