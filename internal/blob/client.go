// Package blob is the HTTP client for the object store holding cover
// images and study-material files. Uploads are optional everywhere they
// appear, so the client fails fast behind a circuit breaker instead of
// letting a slow storage backend stall book or material creation.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

type Client struct {
	baseURL string
	bucket  string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a blob client for the given storage endpoint.
func NewClient(baseURL, bucket, token string) *Client {
	return &Client{
		baseURL: baseURL,
		bucket:  bucket,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "blob-store",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Upload stores data at path inside the bucket and returns the public URL.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("blob store returned status %d", resp.StatusCode)
		}

		return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, path), nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	return url.(string), nil
}
