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

	"viewsvc/modules/clock"
)

var _ CounterStore = (*MemoryCounter)(nil)

// MemoryCounter is an in-process CounterStore. Expired keys read as zero and
// are swept out on a later Incr, so window state ages out without a janitor goroutine.
type MemoryCounter struct {
	clock         clock.Clock
	sweepInterval time.Duration

	mu        sync.Mutex
	entries   map[string]counterEntry
	lastSweep time.Time
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounter(c clock.Clock) *MemoryCounter {
	return &MemoryCounter{
		clock:         c,
		sweepInterval: time.Minute,
		entries:       make(map[string]counterEntry),
	}
}

// Incr implements CounterStore. The TTL is set when a key is created and is not
// extended by later increments.
func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = counterEntry{expiresAt: now.Add(ttl)}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Get implements CounterStore.
func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

// Len reports the number of live and not yet swept keys.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCounter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}
	m.lastSweep = now
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
