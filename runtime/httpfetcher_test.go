package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherReadsMappedLocalRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.cct"), []byte("local bytes"), 0o644))

	f := NewHTTPFetcher("", time.Second)
	f.MapRoot("casts", dir)

	data, err := f.Fetch(context.Background(), "casts/intro.cct")
	require.NoError(t, err)
	require.Equal(t, []byte("local bytes"), data)
}

func TestHTTPFetcherFetchesOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, time.Second)
	data, err := f.Fetch(context.Background(), "cast/members.cct")
	require.NoError(t, err)
	require.Equal(t, []byte("remote bytes"), data)
}

func TestHTTPFetcherFetchesAbsoluteURLDirectly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abs"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", time.Second)
	data, err := f.Fetch(context.Background(), srv.URL+"/x.cct")
	require.NoError(t, err)
	require.Equal(t, []byte("abs"), data)
}

func TestHTTPFetcherReportsNon2xxAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, time.Second)
	_, err := f.Fetch(context.Background(), "missing.cct")
	require.Error(t, err)
}

func TestHTTPFetcherErrorsOnRelativeTargetWithNoBaseOrRoot(t *testing.T) {
	f := NewHTTPFetcher("", time.Second)
	_, err := f.Fetch(context.Background(), "relative.cct")
	require.Error(t, err)
}
