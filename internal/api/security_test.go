package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_SecurityHeaders(t *testing.T) {
	handler := SecurityHeadersMiddleware(okHandler())

	tests := []struct {
		name      string
		forwarded string
		wantHSTS  bool
	}{
		{"plain http", "", false},
		{"behind tls proxy", "https", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/jobs", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
				if w.Header().Get(h) == "" {
					t.Errorf("Expected header %s to be set", h)
				}
			}
			if got := w.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestMiddleware_Auth(t *testing.T) {
	handler := AuthMiddleware("run-token", "/api/", okHandler())

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"health is open", "GET", "/healthz", "", http.StatusOK},
		{"mcp guarded separately", "POST", "/mcp", "", http.StatusOK},
		{"job trigger without token", "POST", "/api/jobs/tag-public-facing", "", http.StatusUnauthorized},
		{"job trigger with token", "POST", "/api/jobs/tag-public-facing", "Bearer run-token", http.StatusOK},
		{"classify with wrong token", "GET", "/api/classify?address=8.8.8.8", "Bearer other", http.StatusUnauthorized},
		{"basic scheme rejected", "GET", "/api/devices", "Basic run-token", http.StatusUnauthorized},
		{"token in query ignored", "GET", "/api/jobs?token=run-token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("%s %s: status %d, want %d", tt.method, tt.path, w.Code, tt.want)
			}
		})
	}
}

func TestValidBearer(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/jobs", nil)
	if ValidBearer(req, "run-token") {
		t.Error("Expected missing header to be rejected")
	}
	req.Header.Set("Authorization", "Bearer run-token")
	if !ValidBearer(req, "run-token") {
		t.Error("Expected matching token to be accepted")
	}
	if ValidBearer(req, "run-token-2") {
		t.Error("Expected token prefix match to be rejected")
	}
}

func TestMiddleware_AuthDisabled(t *testing.T) {
	middleware := AuthMiddleware("", "/api/", okHandler())

	w := httptest.NewRecorder()
	middleware.ServeHTTP(w, httptest.NewRequest("GET", "/api/devices", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with auth disabled, got %d", w.Code)
	}
}

func TestMiddleware_RequestLog(t *testing.T) {
	middleware := RequestLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	middleware.ServeHTTP(w, httptest.NewRequest("GET", "/api/devices", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status to pass through, got %d", w.Code)
	}
}
