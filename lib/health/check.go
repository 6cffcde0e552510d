// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single liveness request.
const DefaultTimeout = 5 * time.Second

// Endpoint is a named liveness URL.
type Endpoint struct {
	Name string
	URL  string
}

// Result is the outcome of one check of one endpoint.
type Result struct {
	Endpoint Endpoint

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Err is the transport error or the non-2xx status, nil when
	// healthy.
	Err error

	Duration time.Duration
}

// Healthy reports whether the endpoint answered with a 2xx status.
func (r Result) Healthy() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Checker performs a single liveness check.
type Checker interface {
	Check(ctx context.Context, endpoint Endpoint) Result
}

// HTTPChecker checks endpoints with a GET request.
type HTTPChecker struct {
	client *http.Client
	token  string
}

// NewHTTPChecker returns a checker whose requests time out after
// timeout. A non-empty token is sent as a bearer credential, for
// services that sit behind an API key.
func NewHTTPChecker(timeout time.Duration, token string) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		token: token,
	}
}

// Check issues one GET against endpoint.URL.
func (c *HTTPChecker) Check(ctx context.Context, endpoint Endpoint) Result {
	start := time.Now()
	result := Result{Endpoint: endpoint}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.URL, nil)
	if err != nil {
		result.Err = fmt.Errorf("building request: %w", err)
		return result
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.client.Do(request)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer response.Body.Close()
	io.Copy(io.Discard, io.LimitReader(response.Body, 64<<10))

	result.StatusCode = response.StatusCode
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		result.Err = fmt.Errorf("status %d", response.StatusCode)
	}
	return result
}
