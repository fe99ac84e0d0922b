package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingService struct {
	mw func(http.Handler) http.Handler
}

func (p pingService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
}

func (p pingService) Middlewares() []func(http.Handler) http.Handler {
	if p.mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{p.mw}
}

func tag(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNew_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 1 << 16} {
		_, err := New("localhost", port)
		assert.Error(t, err, port)
	}
}

func TestNew_EmptyHost(t *testing.T) {
	s, err := New("", 8080)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}

func TestNew_MiddlewareOrder(t *testing.T) {
	s, err := New("localhost", 8080,
		WithServices(pingService{mw: tag("service")}),
		WithGlobalMiddlewares(tag("outer"), tag("inner")),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, []string{"outer", "inner", "service"}, rec.Header().Values("X-Chain"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, err := New("127.0.0.1", 8080, WithServices(pingService{}))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
