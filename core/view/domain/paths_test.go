package domain

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	v, err := Resolve(Options{RootPath: "/srv/app"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/app", "client", "index.html"), v.IndexPath)
	assert.Equal(t, []string{"/view", "/view/*"}, v.Patterns)
	assert.Equal(t, DefaultRedirectPath, v.Redirect)
	assert.Equal(t, DefaultLimitMax, v.Limit.Max)
	assert.Equal(t, DefaultLimitWindow, v.Limit.Window())
	assert.Equal(t, DefaultLoadTimeout, v.LoadTimeout)
}

func TestResolve_NamedView(t *testing.T) {
	v, err := Resolve(Options{
		RootPath:   "/srv/app",
		ClientPath: "/public/",
		ViewPath:   "//app//",
		View:       "dashboard",
		Index:      "main.html",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/app", "public", "dashboard", "main.html"), v.IndexPath)
	assert.Equal(t, []string{"/app/dashboard", "/app/dashboard/*"}, v.Patterns)
}

func TestResolve_WorkingDirectoryRoot(t *testing.T) {
	v, err := Resolve(Options{})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.IndexPath))
}

func TestResolve_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"blank client path", Options{RootPath: "/r", ClientPath: "   "}, "clientPath"},
		{"blank view name", Options{RootPath: "/r", View: " "}, "view"},
		{"nul in index", Options{RootPath: "/r", Index: "a\x00b"}, "index"},
		{"negative max", Options{RootPath: "/r", Limit: LimitPolicy{Max: -1}}, "limit.max"},
		{"negative timeout", Options{RootPath: "/r", LoadTimeout: -1}, "loadTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRoutePatterns_CollapseSeparators(t *testing.T) {
	assert.Equal(t, []string{"/a/b", "/a/b/*"}, RoutePatterns("a//", "/b"))
	assert.Equal(t, []string{"/", "/*"}, RoutePatterns("/", ""))
	for _, p := range RoutePatterns("///x///", "//y//") {
		assert.False(t, strings.Contains(p, "//"), p)
	}
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(strings.NewReader(`{
		"clientPath": "web",
		"view": "home",
		"data": {"name": "Ann"},
		"limit": {"max": 10, "windowMs": 1000}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "web", opts.ClientPath)
	assert.Equal(t, "home", opts.View)
	assert.Equal(t, Data{"name": "Ann"}, opts.Data)
	assert.Equal(t, int64(10), opts.Limit.Max)
	assert.EqualValues(t, 1000, opts.Limit.Window().Milliseconds())
}

func TestDecodeOptions_Rejects(t *testing.T) {
	tests := map[string]string{
		"numeric client path": `{"clientPath": 7}`,
		"primitive data":      `{"data": 42}`,
		"string data":         `{"data": "Ann"}`,
		"unknown field":       `{"middleware": "express"}`,
		"malformed document":  `{"clientPath": `,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeOptions(strings.NewReader(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestDecodeOptions_TypeErrorNamesField(t *testing.T) {
	_, err := DecodeOptions(strings.NewReader(`{"clientPath": 7}`))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "clientPath", cfgErr.Field)
}

func TestOptionsMerge(t *testing.T) {
	base := Options{ClientPath: "web", Index: "a.html", Limit: LimitPolicy{Max: 5}}
	got := base.Merge(Options{Index: "b.html", Data: Data{"k": "v"}, Limit: LimitPolicy{WindowMs: 10}})

	assert.Equal(t, "web", got.ClientPath)
	assert.Equal(t, "b.html", got.Index)
	assert.Equal(t, Data{"k": "v"}, got.Data)
	assert.Equal(t, LimitPolicy{Max: 5, WindowMs: 10}, got.Limit)
}

func TestDataUnmarshalText(t *testing.T) {
	var d Data
	require.NoError(t, d.UnmarshalText([]byte(`{"name":"Ann"}`)))
	assert.Equal(t, Data{"name": "Ann"}, d)

	require.NoError(t, d.UnmarshalText([]byte("  ")))
	assert.Nil(t, d)

	assert.ErrorIs(t, d.UnmarshalText([]byte(`[1,2]`)), ErrConfiguration)
}
