package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/config"
)

func TestCleanKey(t *testing.T) {
	tests := map[string]struct {
		want    string
		wantErr bool
	}{
		"posts/a.jpg":        {want: "posts/a.jpg"},
		"/posts/a.jpg":       {want: "posts/a.jpg"},
		"posts/../a.jpg":     {want: "a.jpg"},
		"../../etc/passwd":   {want: "etc/passwd"},
		"":                   {wantErr: true},
		"/":                  {wantErr: true},
		"posts//./thumb.jpg": {want: "posts/thumb.jpg"},
	}
	for in, tt := range tests {
		got, err := CleanKey(in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, tt.want, got, in)
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("posts", "JPG")
	assert.True(t, strings.HasPrefix(k, "posts/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotEqual(t, k, NewKey("posts", ".jpg"))
}

func TestDiskStorage(t *testing.T) {
	ctx := context.Background()
	s, err := New(config.StorageConfig{Driver: "disk", Path: t.TempDir(), URLPrefix: "/media/"})
	require.NoError(t, err)

	n, err := s.Save(ctx, "posts/hello.txt", strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	rc, err := s.Open(ctx, "posts/hello.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, "/media/posts/hello.txt", s.URL("posts/hello.txt"))

	rec := httptest.NewRecorder()
	s.Serve(rec, httptest.NewRequest(http.MethodGet, "/media/posts/hello.txt", nil), "posts/hello.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = httptest.NewRecorder()
	s.Serve(rec, httptest.NewRequest(http.MethodGet, "/media/posts", nil), "posts")
	assert.Equal(t, http.StatusNotFound, rec.Code, "directories are not served")

	require.NoError(t, s.Delete(ctx, "posts/hello.txt"))
	require.NoError(t, s.Delete(ctx, "posts/hello.txt"), "deleting twice is fine")

	rec = httptest.NewRecorder()
	s.Serve(rec, httptest.NewRequest(http.MethodGet, "/media/posts/hello.txt", nil), "posts/hello.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
