package echoview

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewsvc/core/view/adapters/rest"
	"viewsvc/core/view/domain"
)

func TestMount(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/client/index.html", []byte("<h1>echo</h1>"), 0o644))

	svc, err := rest.New(domain.Options{RootPath: "/app", Limit: domain.LimitPolicy{Max: 100}}, rest.WithFs(fs))
	require.NoError(t, err)

	e := echo.New()
	routes := Mount(e, svc)
	assert.NotEmpty(t, routes)

	tests := []struct {
		method string
		target string
		code   int
		body   string
	}{
		{http.MethodGet, "/view", http.StatusOK, "<h1>echo</h1>"},
		{http.MethodGet, "/view/a/b", http.StatusOK, "<h1>echo</h1>"},
		{http.MethodPost, "/view/a", http.StatusOK, "<h1>echo</h1>"},
		{http.MethodGet, "/view/status/page", http.StatusServiceUnavailable, ""},
		{http.MethodGet, "/elsewhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestMount_TwoViewsShareStatusPage(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"a", "b"} {
		require.NoError(t, afero.WriteFile(fs, "/app/client/"+name+"/index.html", []byte("<h1>"+name+"</h1>"), 0o644))
	}
	a, err := rest.New(domain.Options{RootPath: "/app", View: "a"}, rest.WithFs(fs))
	require.NoError(t, err)
	b, err := rest.New(domain.Options{RootPath: "/app", View: "b"}, rest.WithFs(fs))
	require.NoError(t, err)

	e := echo.New()
	first := Mount(e, a)
	second := Mount(e, b)
	assert.Greater(t, len(first), len(second), "status page is mounted once")

	for target, code := range map[string]int{
		"/view/a":           http.StatusOK,
		"/view/b/x":         http.StatusOK,
		"/view/status/page": http.StatusServiceUnavailable,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, code, rec.Code, target)
	}
}
