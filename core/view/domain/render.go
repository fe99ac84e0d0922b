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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aymerick/raymond"
)

// QueryDataKey is the query parameter carrying a per-request render context.
const QueryDataKey = "data"

// Renderer evaluates a document against a render context.
type Renderer interface {
	// Render returns doc unchanged when data is nil. Any compile or evaluation
	// failure is returned wrapped in ErrRender and no output is produced.
	Render(doc string, data Data) (string, error)
}

var _ Renderer = HandlebarsRenderer{}

// HandlebarsRenderer renders mustache/handlebars templates.
type HandlebarsRenderer struct{}

func (HandlebarsRenderer) Render(doc string, data Data) (string, error) {
	if data == nil {
		return doc, nil
	}
	tpl, err := raymond.Parse(doc)
	if err != nil {
		return "", fmt.Errorf("%w: compile: %w", ErrRender, err)
	}
	out, err := tpl.Exec(map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("%w: exec: %w", ErrRender, err)
	}
	return out, nil
}

// SelectContext picks the render context for a request. A "data" query value
// wins over the static data; with neither, the result is nil.
func SelectContext(query url.Values, static Data) (Data, error) {
	if len(query) > 0 && query.Has(QueryDataKey) {
		return DecodePayload(query.Get(QueryDataKey))
	}
	if len(static) > 0 {
		return static, nil
	}
	return nil, nil
}

var payloadEncodings = []*base64.Encoding{
	base64.RawURLEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.StdEncoding,
}

// DecodePayload turns a query value into a render context. The value is
// base64 (URL-safe or standard) encoded JSON; a value that is not base64 is
// parsed as JSON directly.
func DecodePayload(raw string) (Data, error) {
	raw = strings.TrimSpace(raw)
	// an unescaped "+" of standard base64 arrives as a space after query decoding
	encoded := strings.ReplaceAll(raw, " ", "+")
	payload := []byte(raw)
	for _, enc := range payloadEncodings {
		if b, err := enc.DecodeString(encoded); err == nil {
			payload = b
			break
		}
	}

	var d map[string]any
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: decode data: %w", ErrRender, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: decode data: not an object", ErrRender)
	}
	return d, nil
}
