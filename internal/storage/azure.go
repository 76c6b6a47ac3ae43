package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureFetcher downloads blobs addressed as azblob://container/path/to/blob
// from a single storage account.
type AzureFetcher struct {
	client *azblob.Client
}

// NewAzureFetcher connects to https://<account>.blob.core.windows.net with
// shared-key credentials.
func NewAzureFetcher(accountName, accountKey string) (*AzureFetcher, error) {
	return NewAzureFetcherWithURL(fmt.Sprintf("https://%s.blob.core.windows.net", accountName), accountName, accountKey)
}

// NewAzureFetcherWithURL is NewAzureFetcher against an explicit service URL,
// such as a local emulator.
func NewAzureFetcherWithURL(serviceURL, accountName, accountKey string) (*AzureFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}
	return &AzureFetcher{client: client}, nil
}

// Fetch implements Fetcher.
func (a *AzureFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	container, blob, err := ParseBlobSource(source)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s/%s: %v", ErrFetchFailed, container, blob, err)
	}
	return resp.Body, nil
}

// ParseBlobSource splits azblob://container/blob into its parts. The blob
// name may contain slashes.
func ParseBlobSource(source string) (container, blob string, err error) {
	rest, ok := strings.CutPrefix(source, SchemeAzBlob)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an azblob source", ErrUnsupportedSource, source)
	}
	container, blob, ok = strings.Cut(rest, "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("%w: %q must be azblob://container/blob", ErrUnsupportedSource, source)
	}
	return container, blob, nil
}
