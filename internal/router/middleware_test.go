package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/api/v1/admin/payments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payments", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestRequireUserRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		role string
		want int
	}{
		{name: "delivery", role: "delivery", want: 0},
		{name: "customer", role: "customer", want: 403},
		{name: "missing", role: "", want: 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tc.role != "" {
					c.Set(userRoleContextKey, tc.role)
				}
				c.Next()
			})
			r.Use(RequireUserRole("delivery"))
			r.GET("/deliveries/assigned", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status_code": 0})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/deliveries/assigned", nil)
			r.ServeHTTP(w, req)

			var resp struct {
				StatusCode int `json:"status_code"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response failed: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status_code want %d got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

type fakeUserAuthStates map[uint]*cache.UserAuthState

func (f fakeUserAuthStates) ResolveUserAuthState(_ context.Context, userID uint) (*cache.UserAuthState, error) {
	state, ok := f[userID]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return state, nil
}

func signUserToken(t *testing.T, secret string, claims service.UserJWTClaims) string {
	t.Helper()
	claims.RegisteredClaims = jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "user-jwt-secret-for-middleware-tests"

	states := fakeUserAuthStates{
		1: {UserID: 1, Status: constants.UserStatusActive, Role: constants.UserRoleDelivery, TokenVersion: 2},
		2: {UserID: 2, Status: constants.UserStatusDisabled, Role: constants.UserRoleCustomer},
	}
	r := gin.New()
	r.Use(UserJWTAuthMiddleware(secret, states))
	r.GET("/api/v1/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "data": gin.H{"user_id": c.GetUint("user_id"), "role": c.GetString(userRoleContextKey)}})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: 401},
		{name: "not bearer", header: "Token abc", want: 401},
		{name: "bad signature", header: "Bearer " + signUserToken(t, "other-secret", service.UserJWTClaims{UserID: 1, TokenVersion: 2}), want: 401},
		{name: "revoked", header: "Bearer " + signUserToken(t, secret, service.UserJWTClaims{UserID: 1, TokenVersion: 1}), want: 401},
		{name: "disabled", header: "Bearer " + signUserToken(t, secret, service.UserJWTClaims{UserID: 2}), want: 401},
		{name: "unknown user", header: "Bearer " + signUserToken(t, secret, service.UserJWTClaims{UserID: 9}), want: 401},
		{name: "valid", header: "Bearer " + signUserToken(t, secret, service.UserJWTClaims{UserID: 1, TokenVersion: 2}), want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			var resp struct {
				StatusCode int `json:"status_code"`
				Data       struct {
					UserID uint   `json:"user_id"`
					Role   string `json:"role"`
				} `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response failed: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status_code want %d got %d", tc.want, resp.StatusCode)
			}
			if tc.want == 0 && (resp.Data.UserID != 1 || resp.Data.Role != constants.UserRoleDelivery) {
				t.Fatalf("context not populated: %+v", resp.Data)
			}
		})
	}
}
