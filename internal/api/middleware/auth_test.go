package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/stocksage/internal/api/response"
)

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		value      string
		want       int
	}{
		{"valid key", "secret-key", "X-API-Key", "secret-key", http.StatusOK},
		{"valid bearer", "secret-key", "Authorization", "Bearer secret-key", http.StatusOK},
		{"missing key", "secret-key", "", "", http.StatusUnauthorized},
		{"invalid key", "secret-key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"basic scheme ignored", "secret-key", "Authorization", "Basic secret-key", http.StatusUnauthorized},
		{"auth disabled", "", "", "", http.StatusOK},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := APIKeyAuth(tt.configured)(handler)

			req := httptest.NewRequest("GET", "/api/v1/indicators", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIKeyAuth_ErrorBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	w := httptest.NewRecorder()
	APIKeyAuth("secret-key")(handler).ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/indicators", nil))

	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", resp.Error.Code)
	}
}
