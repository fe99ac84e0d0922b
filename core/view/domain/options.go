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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DefaultClientPath   = "client"
	DefaultViewPath     = "view"
	DefaultIndex        = "index.html"
	DefaultRedirectPath = "/view/status/page"

	DefaultLimitMax    int64 = 3
	DefaultLimitWindow       = time.Minute
	DefaultLoadTimeout       = 5 * time.Second
)

type (
	// Options is the construction-time configuration surface of a view.
	// Zero values take the package defaults; nothing here is mutable once
	// the view is mounted.
	Options struct {
		RootPath   string `json:"rootPath"   env:"ROOT_PATH"`
		ClientPath string `json:"clientPath" env:"CLIENT_PATH"`
		ViewPath   string `json:"viewPath"   env:"VIEW_PATH"`
		// View is the optional named sub-view.
		View     string `json:"view"     env:"NAME"`
		Index    string `json:"index"    env:"INDEX"`
		Redirect string `json:"redirect" env:"REDIRECT"`

		// Data is the static render context, used when a request carries none.
		Data Data `json:"data" env:"DATA"`

		Limit LimitPolicy `json:"limit" envPrefix:"LIMIT_"`

		// LoadTimeout bounds a single index read. Environment only.
		LoadTimeout time.Duration `json:"-" env:"LOAD_TIMEOUT"`
	}

	// LimitPolicy is the fixed-window throttle applied in front of the view.
	LimitPolicy struct {
		Max      int64 `json:"max"      env:"MAX"`
		WindowMs int64 `json:"windowMs" env:"WINDOW_MS"`
	}

	// Data is a structured render context. It is always a JSON object, never a primitive.
	Data map[string]any
)

// UnmarshalText lets Data be supplied as a JSON object literal in an environment variable.
func (d *Data) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = nil
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(text, &m); err != nil {
		return configError("data", "must be a JSON object")
	}
	*d = m
	return nil
}

// UnmarshalJSON accepts an object, or a string holding one.
func (d *Data) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return configError("data", "must be a JSON object")
		}
		return d.UnmarshalText([]byte(s))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return configError("data", "must be a JSON object")
	}
	*d = m
	return nil
}

func (p LimitPolicy) Window() time.Duration {
	return time.Duration(p.WindowMs) * time.Millisecond
}

func (p LimitPolicy) withDefaults() LimitPolicy {
	if p.Max == 0 {
		p.Max = DefaultLimitMax
	}
	if p.WindowMs == 0 {
		p.WindowMs = DefaultLimitWindow.Milliseconds()
	}
	return p
}

// DecodeOptions reads a JSON options document. Wrongly typed or unknown
// fields fail with ErrConfiguration.
func DecodeOptions(r io.Reader) (Options, error) {
	var opts Options
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Options{}, configError(typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
		}
		if errors.Is(err, ErrConfiguration) {
			return Options{}, err
		}
		return Options{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return opts, nil
}

// Merge returns o with every non-zero field of over applied on top.
func (o Options) Merge(over Options) Options {
	pick := func(base, v string) string {
		if v != "" {
			return v
		}
		return base
	}
	o.RootPath = pick(o.RootPath, over.RootPath)
	o.ClientPath = pick(o.ClientPath, over.ClientPath)
	o.ViewPath = pick(o.ViewPath, over.ViewPath)
	o.View = pick(o.View, over.View)
	o.Index = pick(o.Index, over.Index)
	o.Redirect = pick(o.Redirect, over.Redirect)
	if len(over.Data) > 0 {
		o.Data = over.Data
	}
	if over.Limit.Max != 0 {
		o.Limit.Max = over.Limit.Max
	}
	if over.Limit.WindowMs != 0 {
		o.Limit.WindowMs = over.Limit.WindowMs
	}
	if over.LoadTimeout != 0 {
		o.LoadTimeout = over.LoadTimeout
	}
	return o
}
