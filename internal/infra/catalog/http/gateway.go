// Package httpcatalog implements the catalog gateway over the catalog
// service's HTTP API. The client is deliberately thin: retry and fallback
// policy belong to the callers, not here.
package httpcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"matchroom/internal/catalog"
	"matchroom/internal/domain"
)

// HTTPCatalogGateway is the HTTP implementation of catalog.Gateway.
type HTTPCatalogGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// compile-time interface check
var _ catalog.Gateway = (*HTTPCatalogGateway)(nil)

// NewHTTPCatalogGateway creates an HTTPCatalogGateway instance.
func NewHTTPCatalogGateway(baseURL, apiKey string, timeout time.Duration) *HTTPCatalogGateway {
	if baseURL == "" {
		panic("base URL cannot be empty for HTTPCatalogGateway")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCatalogGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCandidates fetches an ordered candidate list matching the filters.
func (g *HTTPCatalogGateway) FetchCandidates(ctx context.Context, filters domain.Filters) ([]domain.ContentItem, error) {
	q := url.Values{}
	if len(filters.Genres) > 0 {
		q.Set("genres", strings.Join(filters.Genres, ","))
	}
	if filters.MinYear > 0 {
		q.Set("min_year", strconv.Itoa(filters.MinYear))
	}
	if filters.MaxYear > 0 {
		q.Set("max_year", strconv.Itoa(filters.MaxYear))
	}
	if filters.MinRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(filters.MinRating, 'f', 1, 64))
	}
	if filters.Limit > 0 {
		q.Set("limit", strconv.Itoa(filters.Limit))
	}

	var items []domain.ContentItem
	if err := g.getJSON(ctx, "/contents?"+q.Encode(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchContent fetches the detail for one content id.
func (g *HTTPCatalogGateway) FetchContent(ctx context.Context, id domain.ContentID) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := g.getJSON(ctx, "/contents/"+url.PathEscape(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// getJSON performs one GET against the catalog API and decodes the body.
// Transport and 5xx failures all map onto catalog.ErrUnavailable.
func (g *HTTPCatalogGateway) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request for %s: %w", path, err)
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request %s failed: %w", path, catalog.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("catalog: %s returned %d: %w", path, resp.StatusCode, catalog.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: %s returned unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode response from %s: %w", path, err)
	}
	return nil
}
