package recommend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		switch r.URL.Path {
		case "/games/10":
			fmt.Fprint(w, `{"id":10,"genres":["rpg","action"],"rating":4.5,"release_date":"2024-03-01"}`)
		case "/games/11":
			fmt.Fprint(w, `{"id":11,"genres":["puzzle"],"rating":3.0,"release_date":"not-a-date"}`)
		case "/games/12":
			fmt.Fprint(w, `{"id":12,"genres":[],"rating":2.0}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newCatalog(t *testing.T, baseURL string) *HTTPCatalog {
	t.Helper()
	c, err := NewHTTPCatalog(HTTPCatalogConfig{
		BaseURL:        baseURL,
		Timeout:        time.Second,
		CacheSize:      16,
		BreakerMaxFail: 3,
		BreakerCooloff: time.Minute,
	}, nop())
	require.NoError(t, err)
	return c
}

func TestHTTPCatalog_FetchesMetadata(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)
	ctx := context.Background()

	genres, err := c.GameGenres(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"rpg", "action"}, genres)

	rating, err := c.GameRating(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 4.5, rating)

	release, err := c.GameReleaseDate(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), release)
}

func TestHTTPCatalog_CachesRecords(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)
	ctx := context.Background()

	_, err := c.GameGenres(ctx, 10)
	require.NoError(t, err)
	_, err = c.GameRating(ctx, 10)
	require.NoError(t, err)
	_, err = c.GameReleaseDate(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "one record fetch serves all three accessors")
}

func TestHTTPCatalog_UnparsableDate(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)

	release, err := c.GameReleaseDate(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, release.IsZero())
}

func TestHTTPCatalog_MissingDate(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)

	release, err := c.GameReleaseDate(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, release.IsZero())
}

func TestHTTPCatalog_NotFound(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)

	_, err := c.GameGenres(context.Background(), 999)
	assert.Error(t, err)
}

func TestHTTPCatalog_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int64
	srv := newCatalogServer(t, &hits)
	c := newCatalog(t, srv.URL)
	ctx := context.Background()

	// Warm the cache before tripping the breaker.
	_, err := c.GameGenres(ctx, 10)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.GameGenres(ctx, 999)
		assert.Error(t, err)
	}
	before := atomic.LoadInt64(&hits)

	// The breaker is now open; further lookups fail fast without a request.
	_, err = c.GameGenres(ctx, 999)
	assert.Error(t, err)
	assert.Equal(t, before, atomic.LoadInt64(&hits))

	// Cached entries keep working while the breaker is open.
	genres, err := c.GameGenres(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"rpg", "action"}, genres)
}
