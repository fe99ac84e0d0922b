// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"viewsvc/modules/clock"
)

type (
	LimiterFactory func(limit int64, window time.Duration) RateLimiter

	// RateLimiter enforces time-based rate limits, e.g. "3 requests per 60 seconds".
	RateLimiter interface {
		// Allow counts one request for key and reports whether it may proceed.
		Allow(ctx context.Context, key Key) (Result, error)
	}

	// Key identifies the originating client, e.g. its remote IP.
	Key string

	// Result represents the outcome of a rate limit decision.
	Result struct {
		Allowed       bool
		Remaining     int64         // how many requests left in current window
		RetryAfter    time.Duration // if not allowed, when client may retry
		Limit         int64         // max allowed in window
		Window        time.Duration // configured window size
		WindowResetIn time.Duration // time until current window ends
	}

	Algorithm string
)

const (
	AlgorithmFixedWindow   Algorithm = "fixed_window"
	AlgorithmSlidingWindow Algorithm = "sliding_window"
	AlgorithmTokenBucket   Algorithm = "token_bucket"
)

// NewFactory returns the LimiterFactory for alg. The counter store is unused by
// the token bucket, which keeps its state in process.
func NewFactory(alg Algorithm, c clock.Clock, counter CounterStore, keyPrefix string) (LimiterFactory, error) {
	switch alg {
	case "", AlgorithmFixedWindow:
		return FixedWindowFactory(c, counter, keyPrefix), nil
	case AlgorithmSlidingWindow:
		return SlidingWindowFactory(c, counter, keyPrefix), nil
	case AlgorithmTokenBucket:
		return TokenBucketFactory(c), nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown algorithm %q", alg)
	}
}
