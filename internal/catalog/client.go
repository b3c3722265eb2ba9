// Package catalog is a read-only client for a TMDB-style movie catalog.
// It has no local state; callers that want caching put it in front of
// the HTTP routes that use it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/theater-tickets/internal/apperr"
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.themoviedb.org/3".
	BaseURL string
	// ImageBaseURL is prefixed to poster paths.
	ImageBaseURL string
	APIKey       string
	// HTTPClient is used for all requests.  If nil, a client with Timeout
	// is created.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client fetches movie metadata and poster images.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
}

// maxImageBytes bounds poster downloads.
const maxImageBytes = 10 << 20

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("catalog: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:       cfg.APIKey,
		httpClient:   hc,
	}, nil
}

// Movie returns the details of the movie with the given external id.
func (c *Client) Movie(ctx context.Context, externalID string) (*MovieDetails, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "catalog: empty movie id")
	}
	var out MovieDetails
	if err := c.get(ctx, "/movie/"+url.PathEscape(externalID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Discover lists movies matching q.
func (c *Client) Discover(ctx context.Context, q DiscoverQuery) (*Page, error) {
	v := url.Values{}
	v.Set("include_adult", "false")
	v.Set("language", "en-US")
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.WithGenres != "" {
		v.Set("with_genres", q.WithGenres)
	}
	if q.Year > 0 {
		v.Set("primary_release_year", strconv.Itoa(q.Year))
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "popularity"
	}
	order := q.Order
	if order != "asc" {
		order = "desc"
	}
	v.Set("sort_by", sortBy+"."+order)

	var out Page
	if err := c.get(ctx, "/discover/movie", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a free text title search.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidArgument, "catalog: empty search query")
	}
	v := url.Values{}
	v.Set("query", query)
	v.Set("include_adult", "false")
	v.Set("language", "en-US")
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))

	var out Page
	if err := c.get(ctx, "/search/movie", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	v := url.Values{}
	v.Set("language", "en")
	var out struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", v, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// Trending returns today's trending movies.
func (c *Client) Trending(ctx context.Context) (*Page, error) {
	var out Page
	if err := c.get(ctx, "/trending/movie/day", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PosterURL joins the image root and a poster path.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	return c.imageBaseURL + posterPath
}

// Poster downloads a poster image and returns its bytes and content type.
func (c *Client) Poster(ctx context.Context, posterPath string) ([]byte, string, error) {
	if posterPath == "" {
		return nil, "", apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: movie has no poster")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PosterURL(posterPath), nil)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: poster request failed: %v", transportErr(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: poster returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: reading poster: %v", transportErr(err))
	}
	if len(body) > maxImageBytes {
		return nil, "", apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: poster exceeds %d bytes", maxImageBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// get issues a GET against the API and decodes the JSON body into out.
// 404 maps to apperr.ErrNotFound; transport failures and other non-2xx
// statuses map to apperr.ErrDependencyUnavailable.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	requestURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("catalog: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: GET %s failed: %v", path, transportErr(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperr.Wrap(apperr.ErrNotFound, "catalog: %s", path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: unexpected %d response from GET %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog: failed to parse %s response: %v", path, transportErr(err))
	}
	return nil
}

// transportErr strips the request URL from err.  Catalog URLs carry the
// API key in the query string.
func transportErr(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
