// Package storage opens radiograph captures from local files, HTTP servers
// and Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrUnsupportedSource reports a source whose scheme has no fetcher.
	ErrUnsupportedSource = errors.New("unsupported image source")

	// ErrFetchFailed reports a remote source that could not be retrieved.
	ErrFetchFailed = errors.New("image fetch failed")
)

// Source schemes.
const (
	SchemeFile   = "file://"
	SchemeHTTP   = "http://"
	SchemeHTTPS  = "https://"
	SchemeAzBlob = "azblob://"
)

// Fetcher opens the bytes of an image source. Callers close the reader.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// FileFetcher opens local paths, with or without a file:// prefix.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(source, SchemeFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Router dispatches a source to the fetcher for its scheme. Plain paths go
// to File. A nil fetcher makes its schemes unsupported.
type Router struct {
	File  Fetcher
	HTTP  Fetcher
	Azure Fetcher
}

// NewRouter returns a router with file and HTTP fetchers. Azure is set
// separately once credentials are known.
func NewRouter() *Router {
	return &Router{
		File: FileFetcher{},
		HTTP: NewHTTPFetcher(),
	}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	f, err := r.route(source)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, source)
}

func (r *Router) route(source string) (Fetcher, error) {
	var f Fetcher
	scheme := "file"
	switch {
	case strings.HasPrefix(source, SchemeHTTP), strings.HasPrefix(source, SchemeHTTPS):
		f, scheme = r.HTTP, "http"
	case strings.HasPrefix(source, SchemeAzBlob):
		f, scheme = r.Azure, "azblob"
	case strings.Contains(source, "://") && !strings.HasPrefix(source, SchemeFile):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	default:
		f = r.File
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s sources are not configured", ErrUnsupportedSource, scheme)
	}
	return f, nil
}
