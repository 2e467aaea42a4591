package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/request"
	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/domain"
)

type RequestService interface {
	CreateRequest(ctx context.Context, graduateID uint, quantity int, reason string) (domain.TicketRequest, error)
	GetRequest(ctx context.Context, requestID uint) (domain.TicketRequest, error)
	ApproveRequest(ctx context.Context, requestID uint, approvedQuantity int, reviewerID uint, notes string) (domain.TicketRequest, error)
	DenyRequest(ctx context.Context, requestID uint, reviewerID uint, notes string) (domain.TicketRequest, error)
	WaitlistRequest(ctx context.Context, requestID uint, reviewerID uint, notes string) (domain.TicketRequest, error)
	BatchProcess(ctx context.Context, decisions []domain.Decision, reviewerID uint) domain.BatchResult
	RedistributeUnusedTickets(ctx context.Context, ceremonyID uint) (domain.RedistributionSummary, error)
}

type RequestHandler struct {
	svc       RequestService
	graduates GraduateLookup
}

func NewRequestHandler(svc RequestService, graduates GraduateLookup) *RequestHandler {
	return &RequestHandler{
		svc:       svc,
		graduates: graduates,
	}
}

// HandleCreateRequest godoc
// @Summary      Request extra tickets
// @Description  A graduate may hold one pending or waitlisted request at a time, filed before the request deadline.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        graduateID  path      int                          true  "Graduate ID"
// @Param        input       body      request.CreateTicketRequest  true  "Requested quantity"
// @Success      201         {object}  domain.TicketRequest
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /graduates/{graduateID}/requests [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleCreateRequest(ctx *gin.Context) {
	graduateID, ok := pathID(ctx, "graduateID")
	if !ok {
		return
	}
	if !authorizeGraduate(ctx, h.graduates, graduateID) {
		return
	}

	var req request.CreateTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateRequest(ctx.Request.Context(), graduateID, req.Quantity, req.Reason)
	if err != nil {
		renderServiceErr(ctx, "HandleCreateRequest -> h.svc.CreateRequest", err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleGetRequest godoc
// @Summary      Get a ticket request
// @Tags         requests
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  domain.TicketRequest
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Router       /requests/{requestID} [get]
// @Security     BearerAuth
func (h *RequestHandler) HandleGetRequest(ctx *gin.Context) {
	requestID, ok := pathID(ctx, "requestID")
	if !ok {
		return
	}

	tr, err := h.svc.GetRequest(ctx.Request.Context(), requestID)
	if err != nil {
		renderServiceErr(ctx, "HandleGetRequest -> h.svc.GetRequest", err)
		return
	}
	if !authorizeGraduate(ctx, h.graduates, tr.GraduateID) {
		return
	}

	ctx.JSON(http.StatusOK, tr)
}

// review binds the shared review body and runs decide with the reviewer's id.
func (h *RequestHandler) review(ctx *gin.Context, op string, decide func(ctx context.Context, requestID, reviewerID uint, req request.ReviewRequest) (domain.TicketRequest, error)) {
	requestID, ok := pathID(ctx, "requestID")
	if !ok {
		return
	}
	reviewer, ok := principal(ctx)
	if !ok {
		return
	}

	var req request.ReviewRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tr, err := decide(ctx.Request.Context(), requestID, reviewer.ID, req)
	if err != nil {
		renderServiceErr(ctx, op, err)
		return
	}

	ctx.JSON(http.StatusOK, tr)
}

// HandleApproveRequest godoc
// @Summary      Approve a ticket request
// @Description  Issues the approved quantity as Extra tickets. Defaults to the requested quantity.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        requestID  path      int                    true   "Request ID"
// @Param        input      body      request.ReviewRequest  false  "Approved quantity and notes"
// @Success      200        {object}  domain.TicketRequest
// @Failure      400        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /requests/{requestID}/approve [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleApproveRequest(ctx *gin.Context) {
	h.review(ctx, "HandleApproveRequest -> h.svc.ApproveRequest", func(c context.Context, requestID, reviewerID uint, req request.ReviewRequest) (domain.TicketRequest, error) {
		if req.ApprovedQuantity != nil {
			return h.svc.ApproveRequest(c, requestID, *req.ApprovedQuantity, reviewerID, req.AdminNotes)
		}

		tr, err := h.svc.GetRequest(c, requestID)
		if err != nil {
			return domain.TicketRequest{}, err
		}

		return h.svc.ApproveRequest(c, requestID, tr.RequestedQuantity, reviewerID, req.AdminNotes)
	})
}

// HandleDenyRequest godoc
// @Summary      Deny a ticket request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        requestID  path      int                    true   "Request ID"
// @Param        input      body      request.ReviewRequest  false  "Notes"
// @Success      200        {object}  domain.TicketRequest
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /requests/{requestID}/deny [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleDenyRequest(ctx *gin.Context) {
	h.review(ctx, "HandleDenyRequest -> h.svc.DenyRequest", func(c context.Context, requestID, reviewerID uint, req request.ReviewRequest) (domain.TicketRequest, error) {
		return h.svc.DenyRequest(c, requestID, reviewerID, req.AdminNotes)
	})
}

// HandleWaitlistRequest godoc
// @Summary      Waitlist a ticket request
// @Description  Waitlisted requests are served by the unused ticket redistribution.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        requestID  path      int                    true   "Request ID"
// @Param        input      body      request.ReviewRequest  false  "Notes"
// @Success      200        {object}  domain.TicketRequest
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /requests/{requestID}/waitlist [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleWaitlistRequest(ctx *gin.Context) {
	h.review(ctx, "HandleWaitlistRequest -> h.svc.WaitlistRequest", func(c context.Context, requestID, reviewerID uint, req request.ReviewRequest) (domain.TicketRequest, error) {
		return h.svc.WaitlistRequest(c, requestID, reviewerID, req.AdminNotes)
	})
}

// HandleBatchProcess godoc
// @Summary      Review many ticket requests
// @Description  Each decision is applied independently. Failures are reported per request.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        input  body      request.BatchProcessRequest  true  "Decisions"
// @Success      200    {object}  domain.BatchResult
// @Failure      400    {object}  response.Err
// @Router       /requests/batch [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleBatchProcess(ctx *gin.Context) {
	reviewer, ok := principal(ctx)
	if !ok {
		return
	}

	var req request.BatchProcessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ctx.JSON(http.StatusOK, h.svc.BatchProcess(ctx.Request.Context(), req.Decisions, reviewer.ID))
}

// HandleRedistribute godoc
// @Summary      Redistribute unused tickets
// @Description  Moves unscanned tickets to waitlisted requests in request order. Allowed once the redistribution deadline has passed.
// @Tags         ceremonies,requests
// @Produce      json
// @Param        ceremonyID  path      int  true  "Ceremony ID"
// @Success      200         {object}  domain.RedistributionSummary
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /ceremonies/{ceremonyID}/redistribute [post]
// @Security     BearerAuth
func (h *RequestHandler) HandleRedistribute(ctx *gin.Context) {
	ceremonyID, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}

	summary, err := h.svc.RedistributeUnusedTickets(ctx.Request.Context(), ceremonyID)
	if err != nil {
		renderServiceErr(ctx, "HandleRedistribute -> h.svc.RedistributeUnusedTickets", err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
