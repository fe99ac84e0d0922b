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

import "errors"

// Per-request failures (read, empty, render) are recovered by redirecting the client.
// Only ErrConfiguration and its wrappers stop the view from being mounted.
var (
	ErrConfiguration = errors.New("invalid view configuration")
	ErrIndexNotFound = errors.New("view index does not exist")
	ErrRead          = errors.New("reading view failed")
	ErrEmptyContent  = errors.New("empty view")
	ErrRender        = errors.New("processing view failed")
)

func configError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// ConfigError names the option that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "view config: " + e.Field + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
