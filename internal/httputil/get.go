// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the single-shot HTTP request used by the fetcher.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports an HTTP response with a 4xx or 5xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Get issues one GET request for url. Redirects are followed by client.
// A status of 400 or above is returned as *StatusError with the body
// drained and closed; on success the caller owns resp.Body. There is no
// retry.
func Get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	return resp, nil
}
