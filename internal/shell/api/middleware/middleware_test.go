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

// =============================================================================
// Test Helpers
// =============================================================================

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// =============================================================================
// AdminToken Tests
// =============================================================================

func TestAdminToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		header   string
		value    string
		wantCode int
		wantErr  string
	}{
		{"disabled", "", "", "", http.StatusOK, ""},
		{"missing", "s3cret", "", "", http.StatusUnauthorized, "unauthorized"},
		{"wrong", "s3cret", HeaderAdminToken, "nope", http.StatusForbidden, "forbidden"},
		{"header", "s3cret", HeaderAdminToken, "s3cret", http.StatusOK, ""},
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", http.StatusOK, ""},
		{"basic is ignored", "s3cret", "Authorization", "Basic s3cret", http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AdminToken(tt.token, nil)(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/admin/cache/refresh", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantErr, body.Code)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

// =============================================================================
// RequestLogger Tests
// =============================================================================

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/health", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
}

func TestRequestLogger_ServerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
}
