package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", NewJWTAuth(&JWTConfig{Secret: testSecret}), func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatUint(uint64(GetUserID(c)), 10)+":"+GetUsername(c))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	valid, err := GenerateToken(42, "alice", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := GenerateToken(42, "alice", testSecret, -time.Hour)
	foreign, _ := GenerateToken(42, "alice", "other-secret", time.Hour)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "42:alice"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "42:alice"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized, ""},
	}

	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestTokensAreUnique(t *testing.T) {
	a, _ := GenerateToken(1, "bob", testSecret, time.Hour)
	b, _ := GenerateToken(1, "bob", testSecret, time.Hour)
	if a == b {
		t.Fatal("expected distinct token ids")
	}
}

type activeUsers map[uint]bool

func (a activeUsers) IsActive(_ context.Context, userID uint) (bool, error) {
	if userID == 13 {
		return false, errors.New("database unavailable")
	}
	return a[userID], nil
}

func TestJWTAuthRejectsInactiveUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &JWTConfig{Secret: testSecret, Users: activeUsers{1: true, 2: false}}
	r.GET("/me", NewJWTAuth(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		userID uint
		status int
	}{
		{"active", 1, http.StatusOK},
		{"deactivated", 2, http.StatusUnauthorized},
		{"deleted", 3, http.StatusUnauthorized},
		{"lookup failure", 13, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.userID, "someone", testSecret, time.Hour)
			if err != nil {
				t.Fatal(err)
			}
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}
