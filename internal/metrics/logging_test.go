// internal/metrics/logging_test.go
package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serveLogged runs one request through LoggingMiddleware and returns the
// response and the decoded log line
func serveLogged(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	LoggingMiddleware(logger)(handler).ServeHTTP(w, req)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log: %v, log: %s", err, buf.String())
	}
	return w, logEntry
}

func TestLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/indicators", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	_, logEntry := serveLogged(t, req)

	if logEntry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", logEntry["method"])
	}
	if logEntry["path"] != "/api/v1/indicators" {
		t.Errorf("expected path /api/v1/indicators, got %v", logEntry["path"])
	}
	if logEntry["status"].(float64) != 202 {
		t.Errorf("expected status 202, got %v", logEntry["status"])
	}
	if _, ok := logEntry["duration_ms"]; !ok {
		t.Error("expected duration_ms in log entry")
	}
	if logEntry["client_ip"] != "192.168.1.1:12345" {
		t.Errorf("expected client_ip 192.168.1.1:12345, got %v", logEntry["client_ip"])
	}
}

func TestLoggingMiddleware_AddsRequestID(t *testing.T) {
	w, logEntry := serveLogged(t, httptest.NewRequest("GET", "/test", nil))

	requestID := w.Header().Get(RequestIDHeader)
	if requestID == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if logEntry["request_id"] != requestID {
		t.Errorf("expected request_id %s, got %v", requestID, logEntry["request_id"])
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	w, logEntry := serveLogged(t, req)

	if w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("expected incoming id to be echoed, got %q", w.Header().Get(RequestIDHeader))
	}
	if logEntry["request_id"] != "abc-123" {
		t.Errorf("expected request_id abc-123, got %v", logEntry["request_id"])
	}
}

func TestLoggingMiddleware_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.2")
	req.RemoteAddr = "10.0.0.1:54321"

	_, logEntry := serveLogged(t, req)

	if logEntry["client_ip"] != "203.0.113.50" {
		t.Errorf("expected client_ip 203.0.113.50, got %v", logEntry["client_ip"])
	}
}
