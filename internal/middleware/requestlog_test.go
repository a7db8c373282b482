package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "ok", status: http.StatusCreated, wantLevel: "INFO"},
		{name: "client_error", status: http.StatusNotFound, wantLevel: "WARN"},
		{name: "server_error", status: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodPost, "/table", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "http request", entry["msg"])
			assert.Equal(t, "http", entry["component"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/table", entry["path"])
			assert.InDelta(t, float64(tt.status), entry["status"], 0.001)
			assert.InDelta(t, float64(4), entry["bytes"], 0.001)
			assert.Equal(t, "req-1", entry["request_id"])
		})
	}
}

func TestRequestLogger_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.InDelta(t, float64(http.StatusOK), entry["status"], 0.001)
}
