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

var _ RateLimiter = (*FixedWindowRateLimiter)(nil)

// FixedWindowRateLimiter counts requests per key inside epoch-aligned windows
// of a fixed length. The counter for a window starts at zero and is dropped by
// the store once the window has passed.
type FixedWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  int64
	window time.Duration
}

func FixedWindowFactory(c clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		if w <= 0 {
			w = time.Minute
		}
		return &FixedWindowRateLimiter{
			clock:     c,
			counter:   counter,
			keyPrefix: keyPrefix,
			limit:     l,
			window:    w,
		}
	}
}

// Allow implements RateLimiter.
func (f *FixedWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	nowNs := f.clock.Now().UnixNano()
	windowNs := f.window.Nanoseconds()
	idx := nowNs / windowNs

	count, err := f.counter.Incr(ctx, f.buildKey(key, idx), f.window)
	if err != nil {
		return Result{}, err
	}

	resetIn := time.Duration((idx+1)*windowNs - nowNs)
	result := Result{
		Allowed:       count <= f.limit,
		Remaining:     max(f.limit-count, 0),
		Limit:         f.limit,
		Window:        f.window,
		WindowResetIn: resetIn,
	}
	if !result.Allowed {
		result.RetryAfter = resetIn
	}
	return result, nil
}

func (f *FixedWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:fw:%s:%d", f.keyPrefix, key, windowIdx)
}
