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

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// Loader reads the index document.
type Loader interface {
	// Load returns the full document text. Failures wrap ErrRead.
	Load(ctx context.Context, path string) (string, error)

	// Exists reports whether path is a readable regular file.
	Exists(path string) bool
}

var _ Loader = (*FSLoader)(nil)

// FSLoader reads through an afero.Fs on a separate goroutine so that a stuck
// read is abandoned once the timeout or the caller's context expires.
type FSLoader struct {
	fs      afero.Fs
	timeout time.Duration
}

func NewFSLoader(fs afero.Fs, timeout time.Duration) *FSLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &FSLoader{fs: fs, timeout: timeout}
}

type readResult struct {
	content []byte
	err     error
}

func (l *FSLoader) Load(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	// buffered so the reader goroutine can always finish after we gave up on it
	done := make(chan readResult, 1)
	go func() {
		b, err := afero.ReadFile(l.fs, path)
		done <- readResult{b, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %w", ErrRead, res.err)
		}
		return string(res.content), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %w", ErrRead, path, ctx.Err())
	}
}

func (l *FSLoader) Exists(path string) bool {
	info, err := l.fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// VerifyIndex fails with ErrIndexNotFound (which is also an ErrConfiguration)
// when the view's index document is missing.
func VerifyIndex(l Loader, v View) error {
	if !l.Exists(v.IndexPath) {
		return fmt.Errorf("%w: %w: %s", ErrConfiguration, ErrIndexNotFound, v.IndexPath)
	}
	return nil
}
