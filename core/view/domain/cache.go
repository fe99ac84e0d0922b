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


package domain

import "sync"

// Cache maps a resolved index path to the last successfully loaded raw document.
// It never evicts and the last writer wins. Safe for concurrent use.
type Cache struct {
	mu   sync.RWMutex
	docs map[string]string
}

func NewCache() *Cache {
	return &Cache{docs: map[string]string{}}
}

func (c *Cache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[path]
	return doc, ok
}

func (c *Cache) Put(path, doc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[path] = doc
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
