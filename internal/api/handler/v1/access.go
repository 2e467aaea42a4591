package v1

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/api/middleware"
	"github.com/gradpass/ceremony-tickets/internal/domain"
	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
)

type GraduateLookup interface {
	GetGraduate(ctx context.Context, id uint) (domain.Graduate, error)
}

// principal returns the caller or renders 401.
func principal(ctx *gin.Context) (jwthelper.Principal, bool) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing principal")))
		return jwthelper.Principal{}, false
	}

	return p, true
}

// authorizeGraduate lets graduates act only on their own record. Other roles
// are already restricted by the route's role guard.
func authorizeGraduate(ctx *gin.Context, graduates GraduateLookup, graduateID uint) bool {
	p, ok := principal(ctx)
	if !ok {
		return false
	}
	if p.Role != jwthelper.RoleGraduate {
		return true
	}

	g, err := graduates.GetGraduate(ctx.Request.Context(), graduateID)
	if err != nil {
		renderServiceErr(ctx, "authorizeGraduate -> graduates.GetGraduate", err)
		return false
	}
	if g.UserID == nil || *g.UserID != p.ID {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotOwner))
		return false
	}

	return true
}
