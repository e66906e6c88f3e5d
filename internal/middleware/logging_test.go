package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggerAssignsRequestID(t *testing.T) {
	captureLogs(t)

	var seen string
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/posts", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestLoggerKeepsUpstreamRequestID(t *testing.T) {
	captureLogs(t)

	var seen string
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.Header.Set(RequestIDHeader, "edge-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "edge-42", seen)
	assert.Equal(t, "edge-42", rr.Header().Get(RequestIDHeader))
}

func TestLoggerLogLine(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success is info", http.StatusOK, "level=INFO"},
		{"client error is info", http.StatusNotFound, "level=INFO"},
		{"server error is warn", http.StatusInternalServerError, "level=WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/posts/p1", nil)
			req.Header.Set(UserIDHeader, "u-1")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			line := buf.String()
			assert.Contains(t, line, tt.level)
			assert.Contains(t, line, "path=/api/posts/p1")
			assert.Contains(t, line, "user=u-1")
			assert.Contains(t, line, "bytes=4")
			assert.Contains(t, line, "request_id=")
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)
		assert.Equal(t, http.StatusNotFound, rw.status)
	})

	t.Run("Write without WriteHeader reports 200", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		n, err := rw.Write([]byte("test"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, http.StatusOK, rw.status)
		assert.True(t, rw.wroteHeader)
	})

	t.Run("bytes accumulate across writes", func(t *testing.T) {
		rw := newStatusRecorder(httptest.NewRecorder())
		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte("ab"))
		rw.Write([]byte("cde"))
		assert.Equal(t, http.StatusCreated, rw.status)
		assert.Equal(t, 5, rw.bytes)
	})
}
