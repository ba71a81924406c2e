package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutConfig(t *testing.T) {
	c, err := New("", "fsn1", "", "", "bucket", "")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New("http://s3.local", "fsn1", "ak", "sk", "", "")
	assert.Error(t, err)
}

func TestFileURL(t *testing.T) {
	c, err := New("http://s3.local/", "fsn1", "ak", "sk", "media", "")
	require.NoError(t, err)
	assert.Equal(t, "http://s3.local/media/posts/a.png", c.FileURL("posts/a.png"))

	c, err = New("http://s3.local", "fsn1", "ak", "sk", "media", "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/posts/a.png", c.FileURL("posts/a.png"))
}

func TestPostImageKey(t *testing.T) {
	now := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)
	key := PostImageKey(now, "Cover.PNG")
	assert.Regexp(t, regexp.MustCompile(`^posts/2026/02/[0-9a-f-]{36}\.png$`), key)
	assert.NotEqual(t, key, PostImageKey(now, "Cover.PNG"))
}

func TestUploadSendsPathStylePut(t *testing.T) {
	var (
		method, path, acl string
		body              []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		acl = r.Header.Get("X-Amz-Acl")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "us-east-1", "ak", "sk", "media", "")
	require.NoError(t, err)

	data := []byte("png-bytes")
	err = c.Upload(context.Background(), "posts/2026/02/x.png", "image/png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/media/posts/2026/02/x.png", path)
	assert.Equal(t, "public-read", acl)
	assert.True(t, strings.Contains(string(body), "png-bytes"))
}
