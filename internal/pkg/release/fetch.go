package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "kittengrid-action"

// Fetcher performs the HTTP side of a download.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher. A nil client selects a client with a download-sized timeout.
func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 5 * time.Minute,
		}
	}

	return &Fetcher{httpClient: httpClient}
}

// Fetch issues a GET request for url and returns the response body unbuffered.
// Non-2xx responses fail with ErrDownloadFailed after the body is released.
func (fetcher *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request for %s: %w", ErrDownloadFailed, url, err)
	}

	request.Header.Set("User-Agent", userAgent)

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrDownloadFailed, url, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64<<10))
		_ = response.Body.Close()

		return nil, fmt.Errorf("%w: fetch %s: %d %s", ErrDownloadFailed, url, response.StatusCode, http.StatusText(response.StatusCode))
	}

	if response.Body == nil || response.Body == http.NoBody {
		return nil, fmt.Errorf("%w: no response body received from %s", ErrDownloadFailed, url)
	}

	return response.Body, nil
}
