// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"sync"
)

// Verify checks every endpoint exactly once. Checks run concurrently
// and never short-circuit; results[i] belongs to endpoints[i].
func Verify(ctx context.Context, checker Checker, endpoints []Endpoint) []Result {
	results := make([]Result, len(endpoints))
	var group sync.WaitGroup
	for index, endpoint := range endpoints {
		group.Add(1)
		go func() {
			defer group.Done()
			results[index] = checker.Check(ctx, endpoint)
		}()
	}
	group.Wait()
	return results
}

// AllHealthy reports whether every result is healthy. An empty slice
// is healthy.
func AllHealthy(results []Result) bool {
	for _, result := range results {
		if !result.Healthy() {
			return false
		}
	}
	return true
}
