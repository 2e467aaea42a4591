package v1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/service"
)

// missingResource names the resource behind a not-found error and the path
// parameter that identifies it.
type missingResource struct {
	name  string
	param string
}

var (
	notFoundErrors = map[error]missingResource{
		service.ErrCeremonyNotFound:      {name: "ceremony", param: "ceremonyID"},
		service.ErrGraduateNotFound:      {name: "graduate", param: "graduateID"},
		service.ErrTicketNotFound:        {name: "ticket", param: "ticketID"},
		service.ErrTicketRequestNotFound: {name: "ticket request", param: "requestID"},
	}
	conflictErrors = []error{
		service.ErrStudentNumberExists,
		service.ErrBaseTicketsAlreadyAllocated,
		service.ErrActiveRequestExists,
		service.ErrRequestNotReviewable,
		service.ErrTicketNotActive,
	}
	badRequestErrors = []error{
		service.ErrInvalidCapacity,
		service.ErrInvalidBaseTickets,
		service.ErrCeremonyDateRequired,
		service.ErrCeremonyInactive,
		service.ErrInvalidQuantity,
		service.ErrInvalidTicketType,
		service.ErrInvalidDecision,
		service.ErrRequestDeadlinePassed,
		service.ErrRedistributionTooEarly,
		service.ErrRequestDeadlineAfterCeremony,
		service.ErrRedistributionDeadlineAfterCeremony,
		service.ErrRedistributionBeforeRequestDeadline,
	}

	errNotOwner = errors.New("the graduate record does not belong to this account")
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func findMissing(err error) (missingResource, bool) {
	for target, missing := range notFoundErrors {
		if errors.Is(err, target) {
			return missing, true
		}
	}
	return missingResource{}, false
}

// renderNotFound names the lookup key when the missing resource is the one
// addressed by the route.
func renderNotFound(ctx *gin.Context, missing missingResource) {
	if value := ctx.Param(missing.param); value != "" {
		response.RenderErr(ctx, response.ErrNotFound(missing.name, "ID", value))
		return
	}
	response.RenderErr(ctx, response.ErrNotFound(missing.name, "", nil))
}

// renderServiceErr maps business rejections to 4xx and everything else to 500.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	if missing, ok := findMissing(err); ok {
		renderNotFound(ctx, missing)
		return
	}

	switch {
	case isAny(err, conflictErrors):
		response.RenderErr(ctx, response.ErrConflict(rootErr(err)))
	case isAny(err, badRequestErrors):
		response.RenderErr(ctx, response.ErrBadRequest(rootErr(err)))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}

// rootErr strips the call-chain prefixes so clients only see the sentinel text.
func rootErr(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %s: %q", name, ctx.Param(name))))
		return 0, false
	}

	return uint(id), true
}

func queryInt(ctx *gin.Context, name string, def int) (int, bool) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid %s: %q", name, raw)))
		return 0, false
	}

	return v, true
}
