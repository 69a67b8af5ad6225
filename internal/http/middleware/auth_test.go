package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, sub, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authRouter(am *AuthMiddleware, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{am.RequireAuth()}
	if len(roles) > 0 {
		chain = append(chain, am.RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String(), "role": rd.Role})
	})
	r.GET("/me", chain...)
	return r
}

func TestRequireAuth(t *testing.T) {
	am := NewAuthMiddleware(logger.Nop(), testSecret)
	user := uuid.New()
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", signToken(t, testSecret, jwt.SigningMethodHS256, user.String(), "", future), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", jwt.SigningMethodHS256, user.String(), "", future), http.StatusUnauthorized},
		{"wrong alg", signToken(t, testSecret, jwt.SigningMethodHS512, user.String(), "", future), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, jwt.SigningMethodHS256, user.String(), "", time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"bad subject", signToken(t, testSecret, jwt.SigningMethodHS256, "not-a-uuid", "", future), http.StatusUnauthorized},
	}
	r := authRouter(am)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRequireAuthDefaultsToStudentRole(t *testing.T) {
	am := NewAuthMiddleware(logger.Nop(), testSecret)
	user := uuid.New()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, user.String(), "", time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	authRouter(am).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"`+user.String()+`","role":"student"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	am := NewAuthMiddleware(logger.Nop(), testSecret)
	r := authRouter(am, ctxutil.RoleTeacher, ctxutil.RoleAdmin)
	future := time.Now().Add(time.Hour)

	for role, want := range map[string]int{
		"student": http.StatusForbidden,
		"teacher": http.StatusOK,
		"ADMIN":   http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, uuid.NewString(), role, future))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %s", role)
	}
}
