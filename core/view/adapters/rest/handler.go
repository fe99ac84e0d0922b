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

package rest

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"

	"viewsvc/core/view/domain"
	"viewsvc/modules/telemetry"
)

// paths with a short extension are static assets, not views
var assetPath = regexp.MustCompile(`(?i)\.[a-z0-9]{1,4}$`)

const IncidentHeader = "X-Incident-Id"

// Handler serves the view document: cache first, then a bounded read of the
// index, rendered against the request's context. Every failure redirects.
type Handler struct {
	view     domain.View
	cache    *domain.Cache
	loader   domain.Loader
	renderer domain.Renderer
	next     http.Handler
	metrics  *telemetry.ViewMetrics

	// first route pattern, used to label logs and metrics
	name string
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if assetPath.MatchString(r.URL.Path) {
		h.next.ServeHTTP(w, r)
		return
	}

	ctx := r.Context()

	if doc, ok := h.cache.Get(h.view.IndexPath); ok {
		h.metrics.CacheLookup(ctx, h.name, true)
		h.respond(w, r, doc)
		return
	}
	h.metrics.CacheLookup(ctx, h.name, false)

	doc, err := h.loader.Load(ctx, h.view.IndexPath)
	if err != nil {
		h.metrics.Load(ctx, h.name, "error")
		h.fail(w, r, slog.LevelError, "reading view", err)
		return
	}
	if strings.TrimSpace(doc) == "" {
		h.metrics.Load(ctx, h.name, "empty")
		h.fail(w, r, slog.LevelWarn, "empty view", domain.ErrEmptyContent)
		return
	}
	h.metrics.Load(ctx, h.name, "ok")

	if h.respond(w, r, doc) {
		h.cache.Put(h.view.IndexPath, doc)
	}
}

// respond renders doc for r and writes it. It reports false when rendering
// failed and the client was redirected instead.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, doc string) bool {
	data, err := domain.SelectContext(r.URL.Query(), h.view.Data)
	if err == nil {
		doc, err = h.renderer.Render(doc, data)
	}
	if err != nil {
		h.metrics.RenderFailure(r.Context(), h.name)
		h.fail(w, r, slog.LevelError, "processing view", err)
		return false
	}

	noCache(w.Header())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, doc)
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, level slog.Level, msg string, err error) {
	attrs := []slog.Attr{
		slog.String("component", "view"),
		slog.String("view", h.name),
		slog.String("url", r.URL.Path),
		slog.Any("error", err),
	}
	if errors.Is(err, domain.ErrRead) || errors.Is(err, domain.ErrEmptyContent) {
		attrs = append(attrs, slog.String("index", h.view.IndexPath))
	}
	if id, uerr := uuid.NewV7(); uerr == nil {
		w.Header().Set(IncidentHeader, id.String())
		attrs = append(attrs, slog.String("incident_id", id.String()))
	}
	slog.LogAttrs(r.Context(), level, msg, attrs...)

	noCache(w.Header())
	http.Redirect(w, r, h.view.Redirect, http.StatusFound)
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Surrogate-Control", "no-store")
}
