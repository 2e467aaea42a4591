package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
)

const (
	principalKey = "principal"
	// tokenQueryParam lets websocket clients, which cannot set headers, authenticate.
	tokenQueryParam = "access_token"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errRoleDenied   = errors.New("role is not allowed to perform this operation")
)

type Authenticator struct {
	key []byte
}

func NewAuthenticator(key string) *Authenticator {
	return &Authenticator{key: []byte(key)}
}

// VerifyJWT resolves the caller's principal from the bearer token.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := bearerToken(ctx)
		if raw == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			ctx.Abort()
			return
		}

		p, err := jwthelper.ParseToken(a.key, raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			ctx.Abort()
			return
		}

		ctx.Set(principalKey, p)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query(tokenQueryParam)
}

// RequireRole aborts with 403 unless the principal holds one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p, ok := PrincipalFrom(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			ctx.Abort()
			return
		}

		for _, role := range roles {
			if p.Role == role {
				ctx.Next()
				return
			}
		}

		response.RenderErr(ctx, response.ErrPermissionDenied(errRoleDenied))
		ctx.Abort()
	}
}

func PrincipalFrom(ctx *gin.Context) (jwthelper.Principal, bool) {
	v, ok := ctx.Get(principalKey)
	if !ok {
		return jwthelper.Principal{}, false
	}
	p, ok := v.(jwthelper.Principal)

	return p, ok
}
