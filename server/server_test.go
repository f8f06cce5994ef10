package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sprinklex-server/confs"
	"sprinklex-server/entities"
	"sprinklex-server/repositories"

	"github.com/gin-gonic/gin"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &confs.Config{
		Port:          "0",
		ESPURL:        "http://192.168.4.1",
		DeviceTimeout: time.Second,
		ProxyTimeout:  time.Second,
		CORSOrigins:   []string{"http://localhost:5000", "https://*.replit.dev"},
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		WaterSources:  entities.DefaultWaterSources(),
	}
	return NewServer(cfg, repositories.NewMemoryStores())
}

func call(t *testing.T, h http.Handler, method, target, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestAccountAndRecordRoutes(t *testing.T) {
	h := testServer(t).Handler()

	code, body := call(t, h, http.MethodPost, "/api/auth/register", "",
		`{"name":"Meena","phone":"9000000001","email":"meena@farm.in","password":"pw"}`)
	if code != http.StatusCreated {
		t.Fatalf("register: %d %v", code, body)
	}
	token := body["token"].(string)

	code, _ = call(t, h, http.MethodPost, "/api/auth/register", "", `{"name":"Meena"}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for incomplete registration, got %d", code)
	}

	code, body = call(t, h, http.MethodPost, "/api/auth/login", "", `{"emailOrPhone":"9000000001","password":"wrong"}`)
	if code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Errorf("expected invalid credentials, got %d %v", code, body)
	}
	code, _ = call(t, h, http.MethodPost, "/api/auth/login", "", `{"emailOrPhone":"meena@farm.in","password":"pw"}`)
	if code != http.StatusOK {
		t.Errorf("expected login by email, got %d", code)
	}

	code, _ = call(t, h, http.MethodGet, "/api/profile", "", "")
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", code)
	}
	code, body = call(t, h, http.MethodPut, "/api/profile", token, `{"name":"Meena Devi"}`)
	if code != http.StatusOK || body["user"].(map[string]interface{})["name"] != "Meena Devi" {
		t.Errorf("update profile: %d %v", code, body)
	}

	code, _ = call(t, h, http.MethodPut, "/api/records/farmData", token, `{"acres":4}`)
	if code != http.StatusOK {
		t.Errorf("put farmData: %d", code)
	}
	code, _ = call(t, h, http.MethodPut, "/api/records/farmData", token, `{acres`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", code)
	}
	code, _ = call(t, h, http.MethodPut, "/api/records/secrets", token, `1`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown key, got %d", code)
	}
	code, body = call(t, h, http.MethodGet, "/api/records/farmData", token, "")
	if code != http.StatusOK || body["value"].(map[string]interface{})["acres"] != float64(4) {
		t.Errorf("get farmData: %d %v", code, body)
	}

	code, _ = call(t, h, http.MethodPost, "/api/auth/logout", token, "")
	if code != http.StatusOK {
		t.Errorf("logout: %d", code)
	}
	for _, key := range []string{"farmData", "user"} {
		code, _ = call(t, h, http.MethodGet, "/api/records/"+key, token, "")
		if code != http.StatusNotFound {
			t.Errorf("expected %s cleared on logout, got %d", key, code)
		}
	}
	code, _ = call(t, h, http.MethodDelete, "/api/records/farmData", token, "")
	if code != http.StatusOK {
		t.Errorf("expected delete of missing record to succeed, got %d", code)
	}
}

func TestHealthAndCache(t *testing.T) {
	h := testServer(t).Handler()

	code, body := call(t, h, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK || body["status"] != "Backend proxy server is running" {
		t.Errorf("health: %d %v", code, body)
	}
	code, body = call(t, h, http.MethodGet, "/api/cache/stats", "", "")
	if code != http.StatusOK || body["stats"].(map[string]interface{})["total_data_points"] != float64(0) {
		t.Errorf("cache stats: %d %v", code, body)
	}
	code, body = call(t, h, http.MethodPost, "/api/cache/process", "", "")
	if code != http.StatusOK || body["stored"] != float64(0) {
		t.Errorf("cache process: %d %v", code, body)
	}
}

func TestCORS(t *testing.T) {
	h := testServer(t).Handler()

	for origin, allowed := range map[string]bool{
		"http://localhost:5000":        true,
		"https://sprinklex.replit.dev": true,
		"https://evil.example.com":     false,
	} {
		req := httptest.NewRequest(http.MethodOptions, "/api/esp8266/toggle", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Allow-Origin") == origin
		if got != allowed {
			t.Errorf("origin %s: allowed=%v, want %v (status %d)", origin, got, allowed, w.Code)
		}
	}
}
