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
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"viewsvc/modules/middleware/problem"
	rl "viewsvc/modules/ratelimit"
)

type (
	// KeyFunc extracts from a HTTP request an identifier such as remote IP, user-agent, cookies, etc.
	KeyFunc func(*http.Request) rl.Key

	// RejectFunc answers a request that exceeded its limit.
	RejectFunc func(w http.ResponseWriter, r *http.Request, result rl.Result)

	// Gate counts requests per client and only lets those within the limit reach
	// the wrapped handler.
	Gate struct {
		name      string
		limiter   rl.RateLimiter
		keyFn     KeyFunc
		onReject  RejectFunc
		onLimited func(*http.Request)
	}

	GateOption func(*Gate)
)

// unidentified clients share one bucket
const unknownKey rl.Key = "unknown"

func WithKeyFunc(fn KeyFunc) GateOption {
	return func(g *Gate) {
		if fn != nil {
			g.keyFn = fn
		}
	}
}

// WithRejectHandler replaces the default 429 problem response.
func WithRejectHandler(fn RejectFunc) GateOption {
	return func(g *Gate) {
		if fn != nil {
			g.onReject = fn
		}
	}
}

// WithName labels log records, usually with the protected route.
func WithName(name string) GateOption {
	return func(g *Gate) { g.name = name }
}

// WithLimitedHook is called for every rejected request, before the reject handler.
func WithLimitedHook(fn func(*http.Request)) GateOption {
	return func(g *Gate) { g.onLimited = fn }
}

func NewGate(limiter rl.RateLimiter, opts ...GateOption) *Gate {
	g := &Gate{
		limiter:  limiter,
		keyFn:    RemoteIpKeyFunc,
		onReject: TooManyRequests,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := g.keyFn(r)
		if key == "" {
			key = unknownKey
		}

		result, err := g.limiter.Allow(r.Context(), key)
		if err != nil {
			// counter store may be down; throttling is best effort
			slog.ErrorContext(r.Context(), "rate limit error, letting request through",
				slog.String("middleware", "rate_limiter"),
				slog.String("gate", g.name),
				slog.String("url", r.URL.Path),
				slog.Any("error", err),
			)
			next.ServeHTTP(w, r)
			return
		}

		writeRateLimitHeaders(w, result)

		if !result.Allowed {
			slog.DebugContext(r.Context(), "rate limited",
				slog.String("middleware", "rate_limiter"),
				slog.String("gate", g.name),
				slog.String("url", r.URL.Path),
			)
			if g.onLimited != nil {
				g.onLimited(r)
			}
			g.onReject(w, r, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TooManyRequests is the default RejectFunc.
func TooManyRequests(w http.ResponseWriter, _ *http.Request, result rl.Result) {
	w.Header().Set("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()+0.5), 10))
	problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
}

// RedirectOnReject sends rejected clients to target with a 302.
func RedirectOnReject(target string) RejectFunc {
	return func(w http.ResponseWriter, r *http.Request, _ rl.Result) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, result rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Reset-Seconds",
		strconv.FormatInt(int64(result.WindowResetIn.Seconds()), 10))
}

// RemoteIpKeyFunc keys on the host part of the connection's remote address.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

// ForwardedForKeyFunc keys on the hop closest to us in X-Forwarded-For, which is
// the one our own proxy appended. Falls back to the remote address.
func ForwardedForKeyFunc(r *http.Request) rl.Key {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return RemoteIpKeyFunc(r)
	}
	ips := strings.Split(xff, ",")
	if last := strings.TrimSpace(ips[len(ips)-1]); last != "" {
		return rl.Key(last)
	}
	return RemoteIpKeyFunc(r)
}
