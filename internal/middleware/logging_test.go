package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(bufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/posts", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="http request"`)
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/admin/posts")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "remote=203.0.113.9")
	assert.Contains(t, out, "duration=")
}

func TestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusFound, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusTooManyRequests, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			h := Logger(bufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestLoggerImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(bufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "hello", w.Body.String())
	assert.Contains(t, buf.String(), "status=200")
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	rw := wrap(httptest.NewRecorder())
	assert.Same(t, rw, wrap(rw))

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	rw.Write([]byte("x"))

	assert.Equal(t, http.StatusNotFound, rw.statusCode)
	assert.True(t, rw.written)
}

func TestResponseWriterWriteImpliesOK(t *testing.T) {
	rw := wrap(httptest.NewRecorder())
	n, err := rw.Write([]byte("test"))

	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.True(t, rw.written)
}
