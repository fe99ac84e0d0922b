package domain

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingFs never returns from Open, standing in for a hung disk.
type blockingFs struct {
	afero.Fs
	release chan struct{}
}

func (b blockingFs) Open(name string) (afero.File, error) {
	<-b.release
	return b.Fs.Open(name)
}

func TestFSLoader_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/client/index.html", []byte("<p>hi</p>"), 0o644))

	l := NewFSLoader(fs, time.Second)
	doc, err := l.Load(context.Background(), "/app/client/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", doc)

	_, err = l.Load(context.Background(), "/app/client/missing.html")
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFSLoader_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	fs := blockingFs{Fs: afero.NewMemMapFs(), release: release}
	l := NewFSLoader(fs, 20*time.Millisecond)

	start := time.Now()
	_, err := l.Load(context.Background(), "/index.html")
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestVerifyIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/app/client/dir.html", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/app/client/index.html", []byte("x"), 0o644))
	l := NewFSLoader(fs, time.Second)

	assert.NoError(t, VerifyIndex(l, View{IndexPath: "/app/client/index.html"}))

	err := VerifyIndex(l, View{IndexPath: "/app/client/nope.html"})
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.ErrorIs(t, VerifyIndex(l, View{IndexPath: "/app/client/dir.html"}), ErrIndexNotFound)
}

func TestCache(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("/a")
	assert.False(t, ok)

	c.Put("/a", "one")
	c.Put("/a", "two")
	doc, ok := c.Get("/a")
	assert.True(t, ok)
	assert.Equal(t, "two", doc)
	assert.Equal(t, 1, c.Len())
}
