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
	"math/bits"
	"time"

	"viewsvc/modules/clock"
)

var _ RateLimiter = (*SlidingWindowRateLimiter)(nil)

// SlidingWindowRateLimiter approximates a rolling window with two adjacent fixed
// windows: the previous window's count is weighted by how much of it still
// overlaps the rolling window ending now.
type SlidingWindowRateLimiter struct {
	clock     clock.Clock
	counter   CounterStore
	keyPrefix string

	limit  uint64
	window time.Duration
}

func SlidingWindowFactory(c clock.Clock, counter CounterStore, keyPrefix string) LimiterFactory {
	return func(l int64, w time.Duration) RateLimiter {
		if w <= 0 {
			w = time.Minute
		}
		return &SlidingWindowRateLimiter{
			clock:     c,
			counter:   counter,
			keyPrefix: keyPrefix,
			limit:     uint64(max(l, 0)),
			window:    w,
		}
	}
}

// Allow implements RateLimiter.
func (s *SlidingWindowRateLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	nowNs := s.clock.Now().UnixNano()
	windowNs := s.window.Nanoseconds()
	idx := nowNs / windowNs

	cur, err := s.counter.Incr(ctx, s.buildKey(key, idx), s.window*2)
	if err != nil {
		return Result{}, err
	}
	prev, err := s.counter.Get(ctx, s.buildKey(key, idx-1))
	if err != nil {
		return Result{}, err
	}

	elapsed := nowNs - idx*windowNs
	prevWeight := uint64(windowNs - elapsed)
	w := uint64(windowNs)

	// weighted usage in request*ns, compared against limit*window in 128 bits
	curHi, curLo := bits.Mul64(uint64(max(cur, 0)), w)
	prevHi, prevLo := bits.Mul64(uint64(max(prev, 0)), prevWeight)
	lo, carry := bits.Add64(curLo, prevLo, 0)
	hi, _ := bits.Add64(curHi, prevHi, carry)
	limHi, limLo := bits.Mul64(s.limit, w)
	allowed := hi < limHi || (hi == limHi && lo <= limLo)

	var used uint64
	if hi < w {
		q, r := bits.Div64(hi, lo, w)
		used = q
		if r != 0 {
			used++
		}
	} else {
		used = ^uint64(0)
	}

	var remaining int64
	if used < s.limit {
		remaining = int64(s.limit - used)
	}

	resetIn := time.Duration(windowNs - elapsed)
	result := Result{
		Allowed:       allowed,
		Remaining:     remaining,
		Limit:         int64(s.limit),
		Window:        s.window,
		WindowResetIn: resetIn,
	}
	if !allowed {
		result.RetryAfter = resetIn
	}
	return result, nil
}

func (s *SlidingWindowRateLimiter) buildKey(key Key, windowIdx int64) string {
	return fmt.Sprintf("%s:sw:%s:%d", s.keyPrefix, key, windowIdx)
}
