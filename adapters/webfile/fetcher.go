package webfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

var ErrRequest = fmt.Errorf("request failed")

// Fetcher loads a remote file over http, e.g. a whitelist published next to the deployment config
type Fetcher struct {
	url string
	cl  http.Client
}

func NewFetcher(url string) *Fetcher {
	return &Fetcher{url: url, cl: http.Client{}}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.cl.Do(httpReq)
	if err != nil {
		return nil, err
	}
	bts, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("err: %w status code %d", ErrRequest, resp.StatusCode)
	}
	return bts, nil
}

func (f *Fetcher) String() string {
	return f.url
}

// FileFetcher loads a local file
type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	bts, err := os.ReadFile(f.path)
	if err != nil {
		return nil, errors.Wrap(err, "read "+f.path)
	}
	return bts, nil
}

func (f *FileFetcher) String() string {
	return f.path
}
