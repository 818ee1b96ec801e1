package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartbin-backend/internal/models"
	"smartbin-backend/internal/service"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

type countingLimiter struct {
	calls int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, _ string, limit int, window time.Duration) (*RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.calls++
	remaining := limit - l.calls
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{Allowed: l.calls <= limit, Remaining: remaining, ResetAt: time.Now().Add(window)}, nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{}
	r := gin.New()
	r.GET("/x", RateLimit(limiter, 2, time.Minute), ok)

	for i := 0; i < 2; i++ {
		rr := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, rr.Code)
		}
	}
	rr := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.GET("/down", RateLimit(&countingLimiter{err: errors.New("redis down")}, 1, time.Minute), ok)
	r.GET("/off", RateLimit(nil, 1, time.Minute), ok)

	for _, path := range []string{"/down", "/off"} {
		if rr := serve(r, httptest.NewRequest(http.MethodGet, path, nil)); rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rr.Code)
		}
	}
}

func TestAuthAndRoles(t *testing.T) {
	utils.InitJWT("middleware-secret", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/staff", AuthMiddleware(), RequireRole(models.RoleAdmin, models.RoleManager), ok)
	r.GET("/admin", AuthMiddleware(), RequireAdmin(), ok)

	managerToken, err := utils.GenerateAccessToken(1, "m@example.com", models.RoleManager)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	cases := []struct {
		path, auth string
		want       int
	}{
		{"/staff", "", http.StatusUnauthorized},
		{"/staff", "Token " + managerToken, http.StatusUnauthorized},
		{"/staff", "Bearer garbage", http.StatusUnauthorized},
		{"/staff", "Bearer " + managerToken, http.StatusOK},
		{"/admin", "Bearer " + managerToken, http.StatusForbidden},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		if c.auth != "" {
			req.Header.Set("Authorization", c.auth)
		}
		if rr := serve(r, req); rr.Code != c.want {
			t.Fatalf("%s %q: expected %d got %d", c.path, c.auth, c.want, rr.Code)
		}
	}
}

type fakeValidator struct {
	valid string
}

func (v fakeValidator) ValidateAPIKey(_ context.Context, key string) (*models.DeviceAPIKey, error) {
	if key == v.valid {
		return &models.DeviceAPIKey{ID: 7}, nil
	}
	return nil, service.ErrUnauthorized
}

func TestAPIKeyAuth(t *testing.T) {
	validator := fakeValidator{valid: "abc.secret"}
	r := gin.New()
	r.POST("/required", APIKeyAuthMiddleware(validator, true), func(c *gin.Context) {
		c.String(http.StatusOK, "%v", c.MustGet(ContextDeviceKeyID))
	})
	r.POST("/optional", APIKeyAuthMiddleware(validator, false), ok)

	cases := []struct {
		path, key string
		want      int
	}{
		{"/required", "", http.StatusUnauthorized},
		{"/required", "abc.wrong", http.StatusUnauthorized},
		{"/required", "abc.secret", http.StatusOK},
		{"/optional", "", http.StatusOK},
		{"/optional", "abc.wrong", http.StatusUnauthorized},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, c.path, nil)
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		rr := serve(r, req)
		if rr.Code != c.want {
			t.Fatalf("%s %q: expected %d got %d", c.path, c.key, c.want, rr.Code)
		}
		if c.want == http.StatusOK && c.path == "/required" && rr.Body.String() != "7" {
			t.Fatalf("expected key id 7 got %q", rr.Body.String())
		}
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/x", ok)

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "given-id")
	if got := serve(r, req).Header().Get("X-Request-Id"); got != "given-id" {
		t.Fatalf("expected given-id got %q", got)
	}
}
