package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// Pager walks a paginated endpoint one page at a time. Pagination ends when
// a page comes back short, empty, or unrecognizable, or when the page-count
// ceiling is reached.
type Pager struct {
	c        *Client
	path     string
	limit    int
	maxPages int
	page     int
	done     bool
}

func (c *Client) Pages(path string, limit, maxPages int) *Pager {
	return &Pager{c: c, path: path, limit: limit, maxPages: maxPages, page: 1}
}

// Next returns the next page of raw records, or (nil, nil) when pagination
// is finished. A RetryExhaustedError from the client ends pagination and is
// returned to the caller.
func (p *Pager) Next(ctx context.Context) ([]any, error) {
	if p.done {
		return nil, nil
	}
	if p.page > p.maxPages {
		slog.Info("page ceiling reached", "max_pages", p.maxPages)
		p.done = true
		return nil, nil
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(p.limit))
	params.Set("page", strconv.Itoa(p.page))

	slog.Info("fetching page", "page", p.page, "path", p.path)
	body, err := p.c.GetJSON(ctx, p.path, params)
	if err != nil {
		p.done = true
		return nil, err
	}

	items, ok := extractItems(body)
	if !ok {
		// Not an error: log the early stop and end the run cleanly.
		slog.Info("unexpected response shape, stopping pagination", "page", p.page)
		p.done = true
		return nil, nil
	}
	if len(items) == 0 {
		slog.Info("no items on page, stopping", "page", p.page)
		p.done = true
		return nil, nil
	}
	if len(items) < p.limit {
		slog.Info("last page reached", "page", p.page, "items", len(items))
		p.done = true
	}
	p.page++
	return items, nil
}

// extractItems resolves the record collection out of a response body: a
// known field name first, then the first array-valued field, then the body
// itself if it already is an array.
func extractItems(body any) ([]any, bool) {
	switch v := body.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, k := range []string{"results", "pulses"} {
			if arr, ok := v[k].([]any); ok {
				return arr, true
			}
		}
		for _, val := range v {
			if arr, ok := val.([]any); ok {
				return arr, true
			}
		}
	}
	return nil, false
}
