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
	"sync"
	"time"

	"golang.org/x/time/rate"

	"viewsvc/modules/clock"
)

var _ RateLimiter = (*TokenBucketRateLimiter)(nil)

// TokenBucketRateLimiter refills limit tokens per window, allowing bursts of up
// to limit requests. Buckets live in process and are dropped after two idle windows.
type TokenBucketRateLimiter struct {
	clock  clock.Clock
	limit  int64
	window time.Duration

	mu        sync.Mutex
	buckets   map[Key]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func TokenBucketFactory(c clock.Clock) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		if w <= 0 {
			w = time.Minute
		}
		return &TokenBucketRateLimiter{
			clock:   c,
			limit:   l,
			window:  w,
			buckets: make(map[Key]*bucket),
		}
	}
}

func (t *TokenBucketRateLimiter) every() time.Duration {
	if t.limit <= 0 {
		return t.window
	}
	return t.window / time.Duration(t.limit)
}

// Allow implements RateLimiter.
func (t *TokenBucketRateLimiter) Allow(_ context.Context, key Key) (Result, error) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweep(now)

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(t.every()), int(max(t.limit, 0)))}
		t.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	result := Result{
		Allowed:   allowed,
		Remaining: max(int64(tokens), 0),
		Limit:     t.limit,
		Window:    t.window,
		// time until the bucket is full again
		WindowResetIn: time.Duration((float64(t.limit) - tokens) * float64(t.every())),
	}
	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) * float64(t.every()))
	}
	return result, nil
}

func (t *TokenBucketRateLimiter) sweep(now time.Time) {
	if now.Sub(t.lastSweep) < t.window {
		return
	}
	t.lastSweep = now
	for k, b := range t.buckets {
		if now.Sub(b.lastSeen) > 2*t.window {
			delete(t.buckets, k)
		}
	}
}
