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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var repeatedSlashes = regexp.MustCompile(`/+`)

// View is the immutable result of resolving Options.
type View struct {
	// IndexPath is the absolute location of the index document, and the cache key.
	IndexPath string
	// Patterns holds the bare mount followed by its wildcard child.
	Patterns []string

	Redirect    string
	Data        Data
	Limit       LimitPolicy
	LoadTimeout time.Duration
}

// Resolve applies defaults, validates every path-like option and computes the
// index location and route patterns.
func Resolve(opts Options) (View, error) {
	root := opts.RootPath
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return View{}, fmt.Errorf("%w: working directory: %w", ErrConfiguration, err)
		}
		root = wd
	}
	client := orDefault(opts.ClientPath, DefaultClientPath)
	viewPath := orDefault(opts.ViewPath, DefaultViewPath)
	index := orDefault(opts.Index, DefaultIndex)
	redirect := orDefault(opts.Redirect, DefaultRedirectPath)

	for _, f := range []struct{ name, value string }{
		{"rootPath", root},
		{"clientPath", client},
		{"viewPath", viewPath},
		{"index", index},
		{"redirect", redirect},
	} {
		if err := validatePath(f.name, f.value); err != nil {
			return View{}, err
		}
	}
	// an explicitly set but blank view name is a mistake, not "no view"
	if opts.View != "" {
		if err := validatePath("view", opts.View); err != nil {
			return View{}, err
		}
	}

	limit := opts.Limit.withDefaults()
	if limit.Max < 0 {
		return View{}, configError("limit.max", "must not be negative")
	}
	if limit.WindowMs < 0 {
		return View{}, configError("limit.windowMs", "must not be negative")
	}

	timeout := opts.LoadTimeout
	if timeout == 0 {
		timeout = DefaultLoadTimeout
	}
	if timeout < 0 {
		return View{}, configError("loadTimeout", "must not be negative")
	}

	indexPath, err := filepath.Abs(filepath.Join(root, client, opts.View, index))
	if err != nil {
		return View{}, fmt.Errorf("%w: index path: %w", ErrConfiguration, err)
	}

	return View{
		IndexPath:   indexPath,
		Patterns:    RoutePatterns(viewPath, opts.View),
		Redirect:    redirect,
		Data:        opts.Data,
		Limit:       limit,
		LoadTimeout: timeout,
	}, nil
}

// RoutePatterns returns the mount and its wildcard child, with runs of "/" collapsed.
func RoutePatterns(viewPath, view string) []string {
	base := "/" + viewPath
	if view != "" {
		base += "/" + view
	}
	base = strings.TrimSuffix(NormalizePattern(base), "/")
	if base == "" {
		base = "/"
	}
	return []string{
		base,
		NormalizePattern(base + "/*"),
	}
}

func NormalizePattern(p string) string {
	return repeatedSlashes.ReplaceAllString(p, "/")
}

func validatePath(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return configError(name, "must be a non-empty string")
	}
	if strings.ContainsRune(value, 0) {
		return configError(name, "must not contain NUL")
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
