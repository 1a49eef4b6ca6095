package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/server/authctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func accessClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":        "7",
		"email":      "test@example.com",
		"role":       "manager",
		"hub":        int64(3),
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	var captured *authctx.CurrentUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = authctx.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := AuthMiddleware(testSecret)(next)

	serve := func(authorization string) *httptest.ResponseRecorder {
		captured = nil
		r := httptest.NewRequest("GET", "/returns", nil)
		if authorization != "" {
			r.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, r)
		return w
	}

	t.Run("valid token populates user", func(t *testing.T) {
		w := serve("Bearer " + signToken(t, accessClaims()))
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured)
		assert.Equal(t, int64(7), captured.ID)
		assert.Equal(t, int64(3), captured.HubID)
		assert.Equal(t, "test@example.com", captured.Email)
		assert.Equal(t, domain.RoleManager, captured.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, captured)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims()).SignedString([]byte("other-secret"))
		require.NoError(t, err)
		w := serve("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := accessClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		w := serve("Bearer " + signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		claims := accessClaims()
		claims["token_type"] = "refresh"
		w := serve("Bearer " + signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing hub claim", func(t *testing.T) {
		claims := accessClaims()
		delete(claims, "hub")
		w := serve("Bearer " + signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequireRole(domain.RoleAdmin, domain.RoleManager)(next)

	serve := func(role domain.UserRole, withUser bool) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/dashboard/summary", nil)
		if withUser {
			r = r.WithContext(authctx.WithCurrentUser(r.Context(), authctx.CurrentUser{ID: 1, HubID: 1, Role: role}))
		}
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, serve(domain.RoleManager, true).Code)
	assert.Equal(t, http.StatusOK, serve(domain.RoleAdmin, true).Code)
	assert.Equal(t, http.StatusForbidden, serve(domain.RoleStaff, true).Code)
	assert.Equal(t, http.StatusForbidden, serve("", false).Code)
}
