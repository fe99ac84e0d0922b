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
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/afero"

	"viewsvc/core/view/domain"
	"viewsvc/modules/clock"
	mwrl "viewsvc/modules/middleware/ratelimit"
	rl "viewsvc/modules/ratelimit"
	"viewsvc/modules/server"
	"viewsvc/modules/telemetry"
)

var _ server.RegistrableService = (*Service)(nil)

type (
	// Service is one mounted view: the rate gate in front of the view handler,
	// registered on every route pattern of the view.
	Service struct {
		view       domain.View
		handler    http.Handler
		statusPage bool
	}

	settings struct {
		fs         afero.Fs
		loader     domain.Loader
		renderer   domain.Renderer
		cache      *domain.Cache
		next       http.Handler
		factory    rl.LimiterFactory
		keyFn      mwrl.KeyFunc
		reject     mwrl.RejectFunc
		metrics    *telemetry.ViewMetrics
		statusPage bool
	}

	Option func(*settings)
)

// WithFs sets the filesystem the default loader reads from.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) { s.fs = fs }
}

// WithLoader replaces the filesystem loader entirely.
func WithLoader(l domain.Loader) Option {
	return func(s *settings) { s.loader = l }
}

func WithRenderer(r domain.Renderer) Option {
	return func(s *settings) { s.renderer = r }
}

func WithCache(c *domain.Cache) Option {
	return func(s *settings) { s.cache = c }
}

// WithNext is called for asset-like paths under the view's patterns.
func WithNext(next http.Handler) Option {
	return func(s *settings) { s.next = next }
}

// WithLimiterFactory picks the rate-limit algorithm and its state store.
// The view's own limit and window are passed to it.
func WithLimiterFactory(f rl.LimiterFactory) Option {
	return func(s *settings) { s.factory = f }
}

func WithKeyFunc(fn mwrl.KeyFunc) Option {
	return func(s *settings) { s.keyFn = fn }
}

// WithRejectHandler replaces the redirect sent to throttled clients.
func WithRejectHandler(fn mwrl.RejectFunc) Option {
	return func(s *settings) { s.reject = fn }
}

func WithMetrics(m *telemetry.ViewMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithoutStatusPage stops Register from mounting StatusPage on the redirect path,
// for hosts that serve that path themselves.
func WithoutStatusPage() Option {
	return func(s *settings) { s.statusPage = false }
}

// New resolves and validates opts, checks that the index document exists and
// assembles the gated handler. Any error wraps domain.ErrConfiguration and
// nothing is mounted.
func New(opts domain.Options, deps ...Option) (*Service, error) {
	view, err := domain.Resolve(opts)
	if err != nil {
		return nil, err
	}

	s := settings{
		renderer:   domain.HandlebarsRenderer{},
		next:       http.NotFoundHandler(),
		statusPage: true,
	}
	for _, opt := range deps {
		opt(&s)
	}
	if s.loader == nil {
		s.loader = domain.NewFSLoader(s.fs, view.LoadTimeout)
	}
	if s.cache == nil {
		s.cache = domain.NewCache()
	}
	if s.factory == nil {
		c := clock.RealClockProvider()
		s.factory = rl.FixedWindowFactory(c, rl.NewMemoryCounter(c), KeyPrefix(view))
	}
	if s.reject == nil {
		s.reject = mwrl.RedirectOnReject(view.Redirect)
	}

	if err := domain.VerifyIndex(s.loader, view); err != nil {
		slog.Error("view index does not exist", slog.String("index", view.IndexPath))
		return nil, err
	}

	name := view.Patterns[0]
	h := &Handler{
		view:     view,
		cache:    s.cache,
		loader:   s.loader,
		renderer: s.renderer,
		next:     s.next,
		metrics:  s.metrics,
		name:     name,
	}

	gate := mwrl.NewGate(
		s.factory(view.Limit.Max, view.Limit.Window()),
		mwrl.WithName(name),
		mwrl.WithKeyFunc(s.keyFn),
		mwrl.WithRejectHandler(s.reject),
		mwrl.WithLimitedHook(func(r *http.Request) { s.metrics.RateLimited(r.Context(), name) }),
	)

	slog.Info("view service is now active",
		slog.Any("patterns", view.Patterns),
		slog.String("index", view.IndexPath),
		slog.Int64("limit_max", view.Limit.Max),
		slog.Duration("limit_window", view.Limit.Window()),
	)

	return &Service{
		view:       view,
		handler:    gate.Middleware(h),
		statusPage: s.statusPage,
	}, nil
}

// KeyPrefix scopes rate-limit counters to one view.
func KeyPrefix(v domain.View) string {
	return "view:" + v.Patterns[0]
}

func (s *Service) View() domain.View {
	return s.view
}

// Handler is the rate-gated view handler, for hosts other than http.ServeMux.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// StatusPagePath is where hosts should mount StatusPage. It is false when the
// status page is disabled, the redirect leaves this host, or the redirect is
// itself one of the view's own patterns.
func (s *Service) StatusPagePath() (string, bool) {
	target := s.view.Redirect
	if !s.statusPage || !strings.HasPrefix(target, "/") || strings.ContainsAny(target, "?#{}* ") {
		return "", false
	}
	for _, p := range s.view.Patterns {
		if p == target || MuxPattern(p) == target {
			return "", false
		}
	}
	return target, true
}

// Register mounts the view on every route pattern, for any method.
func (s *Service) Register(mux *http.ServeMux) {
	for _, p := range s.view.Patterns {
		mux.Handle(MuxPattern(p), s.handler)
	}
	// views sharing a redirect share one status page
	if target, ok := s.StatusPagePath(); ok && !routes(mux, target) {
		mux.Handle(target, StatusPage())
	}
}

// routes reports whether mux already has target registered as a pattern.
func routes(mux *http.ServeMux, target string) bool {
	r, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	_, pattern := mux.Handler(r)
	return pattern == target
}

// Middlewares implements server.RegistrableService.
func (s *Service) Middlewares() []func(http.Handler) http.Handler {
	return nil
}

// MuxPattern converts a route pattern to http.ServeMux syntax: "/x/*" is the
// subtree "/x/", and a bare "/" only matches the root itself.
func MuxPattern(p string) string {
	switch {
	case strings.HasSuffix(p, "/*"):
		return strings.TrimSuffix(p, "*")
	case p == "/":
		return "/{$}"
	default:
		return p
	}
}

// StatusPage is the default redirect target: a small uncacheable notice.
func StatusPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		noCache(w.Header())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		if r.Method != http.MethodHead {
			fmt.Fprint(w, statusPageHTML)
		}
	})
}

const statusPageHTML = `<!doctype html>
<html><head><meta charset="utf-8"><title>Unavailable</title></head>
<body><p>This page is temporarily unavailable. Please try again shortly.</p></body></html>
`
