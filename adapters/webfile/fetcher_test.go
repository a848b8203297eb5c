package webfile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`["0x9dd9c2d208b07bf9a4ef9ca311f36d7185749635"]`))
	}))
	defer srv.Close()

	bts, err := NewFetcher(srv.URL).Fetch(context.Background())
	require.Nil(t, err, err)
	require.Equal(t, `["0x9dd9c2d208b07bf9a4ef9ca311f36d7185749635"]`, string(bts))
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL).Fetch(context.Background())
	require.ErrorIs(t, err, ErrRequest)
}

func TestFileFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.yaml")
	require.Nil(t, os.WriteFile(path, []byte("- addrA\n"), 0o600))

	bts, err := NewFileFetcher(path).Fetch(context.Background())
	require.Nil(t, err, err)
	require.Equal(t, "- addrA\n", string(bts))

	_, err = NewFileFetcher(filepath.Join(t.TempDir(), "missing.yaml")).Fetch(context.Background())
	require.NotNil(t, err)
}
