package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
)

const signingKey = "middleware-test-key"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := NewAuthenticator(signingKey)

	r.GET("/whoami", auth.VerifyJWT(), func(ctx *gin.Context) {
		p, _ := PrincipalFrom(ctx)
		ctx.JSON(http.StatusOK, p)
	})
	r.GET("/gate", auth.VerifyJWT(), RequireRole(jwthelper.RoleAdmin, jwthelper.RoleSecurity), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	return r
}

func token(t *testing.T, id uint, role string) string {
	t.Helper()
	raw, err := jwthelper.GenerateToken([]byte(signingKey), jwthelper.Principal{ID: id, Role: role}, time.Minute)
	require.NoError(t, err)
	return raw
}

func TestVerifyJWT(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed token", "Bearer nope", "", http.StatusUnauthorized},
		{"header token", "Bearer " + token(t, 7, jwthelper.RoleGraduate), "", http.StatusOK},
		{"query token", "", token(t, 7, jwthelper.RoleGraduate), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/whoami"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"role":"graduate"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	for role, want := range map[string]int{
		jwthelper.RoleAdmin:    http.StatusNoContent,
		jwthelper.RoleSecurity: http.StatusNoContent,
		jwthelper.RoleGraduate: http.StatusForbidden,
	} {
		t.Run(role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/gate", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, 1, role))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, want, rec.Code)
		})
	}
}
