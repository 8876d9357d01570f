package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads source feeds.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadBytes fetches the URL into memory, refusing bodies over the
	// fetcher's size cap.
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}
