package catalog

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-tickets/internal/apperr"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/3/", ImageBaseURL: srv.URL + "/img", APIKey: "k"})
	require.NoError(t, err)
	return c
}

func TestClient_Movie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/tt0111161", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":278,"imdb_id":"tt0111161","title":"The Shawshank Redemption","runtime":142,
			"original_language":"en","poster_path":"/p.jpg","genres":[{"id":18,"name":"Drama"}]}`))
	})

	m, err := c.Movie(context.Background(), "tt0111161")
	require.NoError(t, err)
	assert.Equal(t, "The Shawshank Redemption", m.Title)
	assert.Equal(t, 142, m.Runtime)
	require.Len(t, m.Genres, 1)
	assert.Equal(t, "Drama", m.Genres[0].Name)
}

func TestClient_Movie_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Movie(context.Background(), "tt0")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Trending(context.Background())
	assert.ErrorIs(t, err, apperr.ErrDependencyUnavailable)
}

func TestClient_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	_, err := c.Genres(context.Background())
	assert.ErrorIs(t, err, apperr.ErrDependencyUnavailable)
}

func TestClient_Discover_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/3/discover/movie", r.URL.Path)
		assert.Equal(t, "vote_average.asc", q.Get("sort_by"))
		assert.Equal(t, "28,12", q.Get("with_genres"))
		assert.Equal(t, "2", q.Get("page"))
		_, _ = w.Write([]byte(`{"page":2,"results":[{"id":1,"title":"A"}],"total_pages":9,"total_results":170}`))
	})
	p, err := c.Discover(context.Background(), DiscoverQuery{Page: 2, WithGenres: "28,12", SortBy: "vote_average", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 9, p.TotalPages)
	require.Len(t, p.Results, 1)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alien", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	})
	_, err := c.Search(context.Background(), "alien", 0)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestClient_Poster(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img/p.jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	body, ct, err := c.Poster(context.Background(), "/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.Len(t, body, 3)

	_, _, err = c.Poster(context.Background(), "/missing.jpg")
	assert.ErrorIs(t, err, apperr.ErrDependencyUnavailable)

	_, _, err = c.Poster(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrDependencyUnavailable)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "SECRET-KEY", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Movie(context.Background(), "tt1")
	require.ErrorIs(t, err, apperr.ErrDependencyUnavailable)
	assert.NotContains(t, err.Error(), "SECRET-KEY")
	assert.NotContains(t, err.Error(), "api_key")
}

func TestClient_PosterTooLarge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0xff}, maxImageBytes+1))
	})
	_, _, err := c.Poster(context.Background(), "/huge.jpg")
	assert.ErrorIs(t, err, apperr.ErrDependencyUnavailable)
}
