package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFSFetcher(t *testing.T) {
	f := NewFS(fstest.MapFS{
		"data/profile.en.json": {Data: []byte(`{"name":"Ada"}`)},
		"data/broken.json":     {Data: []byte(`{"name":`)},
	})
	ctx := context.Background()

	var profile struct{ Name string }
	require.NoError(t, JSON(ctx, f, "data/profile.en.json", &profile))
	require.Equal(t, "Ada", profile.Name)

	_, err := f.Fetch(ctx, "data/profile.fr.json")
	require.ErrorIs(t, err, ErrNotFound)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, "data/profile.fr.json", ferr.Path)

	err = JSON(ctx, f, "data/broken.json", &profile)
	require.Error(t, err)
	require.ErrorAs(t, err, &ferr)

	_, err = f.Fetch(ctx, "../secrets.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/site/i18n/ui.en.json":
			_, _ = w.Write([]byte(`{"site":{"title":"Home"}}`))
		case "/site/boom.json":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTP(srv.URL+"/site/", time.Second)
	ctx := context.Background()

	text, err := Text(ctx, f, "i18n/ui.en.json")
	require.NoError(t, err)
	require.Contains(t, text, "Home")

	_, err = f.Fetch(ctx, "i18n/ui.xx.json")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(ctx, "boom.json")
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, http.StatusBadGateway, ferr.Status)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestCacheHonoursTTLAndSkipsFailures(t *testing.T) {
	var calls atomic.Int32
	fail := true
	next := Func(func(ctx context.Context, path string) ([]byte, error) {
		calls.Add(1)
		if path == "flaky.json" && fail {
			return nil, &Error{Path: path, Err: errors.New("offline")}
		}
		return []byte(path), nil
	})
	cache := NewCache(next, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "a.json")
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "a.json")
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = cache.Fetch(ctx, "a.json")
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	_, err = cache.Fetch(ctx, "flaky.json")
	require.Error(t, err)
	fail = false
	body, err := cache.Fetch(ctx, "flaky.json")
	require.NoError(t, err)
	require.Equal(t, "flaky.json", string(body))

	require.Equal(t, 2, cache.Len())
	cache.Invalidate()
	require.Equal(t, 0, cache.Len())
}

func TestCacheRegistersMetricsOnMeter(t *testing.T) {
	next := Func(func(ctx context.Context, path string) ([]byte, error) {
		return []byte(path), nil
	})
	cache := NewCache(next, 0, WithMeter(noop.NewMeterProvider().Meter("test")), WithLogger(nil))
	require.Equal(t, time.Minute, cache.ttl)
	require.True(t, cache.latencyEnabled)
	require.True(t, cache.cacheHitsEnabled)

	for i := 0; i < 2; i++ {
		body, err := cache.Fetch(context.Background(), "a.json")
		require.NoError(t, err)
		require.Equal(t, "a.json", string(body))
	}
	require.Equal(t, 1, cache.Len())
}
