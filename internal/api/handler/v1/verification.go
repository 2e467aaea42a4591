package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/request"
	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/domain"
)

type VerificationService interface {
	VerifyByPayload(ctx context.Context, payload string, scan domain.ScanRequest) (domain.VerificationResult, error)
	VerifyByCode(ctx context.Context, code string, scan domain.ScanRequest) (domain.VerificationResult, error)
	ValidatePayload(ctx context.Context, payload string) (bool, error)
	ListFraudCases(ctx context.Context, ceremonyID uint) ([]domain.EntryLog, error)
	ListEntryLogs(ctx context.Context, filter domain.EntryLogFilter) ([]domain.EntryLog, error)
}

type VerificationHandler struct {
	svc VerificationService
}

func NewVerificationHandler(svc VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// Verification outcomes are results, not errors, so every decided scan is a 200.

// HandleVerifyQR godoc
// @Summary      Verify a scanned QR payload
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        input  body      request.VerifyQRRequest  true  "Scanned payload"
// @Success      200    {object}  domain.VerificationResult
// @Failure      400    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /verify/qr [post]
// @Security     BearerAuth
func (h *VerificationHandler) HandleVerifyQR(ctx *gin.Context) {
	scanner, ok := principal(ctx)
	if !ok {
		return
	}

	var req request.VerifyQRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.VerifyByPayload(ctx.Request.Context(), req.Payload, req.ScanRequest(scanner.ID))
	if err != nil {
		renderServiceErr(ctx, "HandleVerifyQR -> h.svc.VerifyByPayload", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleVerifyCode godoc
// @Summary      Verify a manually entered ticket code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        input  body      request.VerifyCodeRequest  true  "Ticket code"
// @Success      200    {object}  domain.VerificationResult
// @Failure      400    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /verify/code [post]
// @Security     BearerAuth
func (h *VerificationHandler) HandleVerifyCode(ctx *gin.Context) {
	scanner, ok := principal(ctx)
	if !ok {
		return
	}

	var req request.VerifyCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.VerifyByCode(ctx.Request.Context(), req.Code, req.ScanRequest(scanner.ID))
	if err != nil {
		renderServiceErr(ctx, "HandleVerifyCode -> h.svc.VerifyByCode", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleValidatePayload godoc
// @Summary      Check a QR payload without admitting anyone
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        input  body      request.ValidatePayloadRequest  true  "Payload"
// @Success      200    {object}  response.PayloadValidation
// @Failure      400    {object}  response.Err
// @Router       /verify/validate [post]
// @Security     BearerAuth
func (h *VerificationHandler) HandleValidatePayload(ctx *gin.Context) {
	var req request.ValidatePayloadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	valid, err := h.svc.ValidatePayload(ctx.Request.Context(), req.Payload)
	if err != nil {
		renderServiceErr(ctx, "HandleValidatePayload -> h.svc.ValidatePayload", err)
		return
	}

	ctx.JSON(http.StatusOK, response.PayloadValidation{Valid: valid})
}

// HandleListEntryLogs godoc
// @Summary      List a ceremony's entry logs
// @Tags         verification
// @Produce      json
// @Param        ceremonyID  path      int     true   "Ceremony ID"
// @Param        outcome     query     string  false  "Filter by verification status"
// @Param        limit       query     int     false  "Page size (default 50, max 200)"
// @Param        offset      query     int     false  "Offset"
// @Success      200         {array}   domain.EntryLog
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Router       /ceremonies/{ceremonyID}/entry-logs [get]
// @Security     BearerAuth
func (h *VerificationHandler) HandleListEntryLogs(ctx *gin.Context) {
	ceremonyID, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}
	limit, ok := queryInt(ctx, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(ctx, "offset", 0)
	if !ok {
		return
	}

	logs, err := h.svc.ListEntryLogs(ctx.Request.Context(), domain.EntryLogFilter{
		CeremonyID: ceremonyID,
		Outcome:    domain.VerificationOutcome(ctx.Query("outcome")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		renderServiceErr(ctx, "HandleListEntryLogs -> h.svc.ListEntryLogs", err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}

// HandleListFraudCases godoc
// @Summary      List fraud attempts at a ceremony
// @Tags         verification
// @Produce      json
// @Param        ceremonyID  path      int  true  "Ceremony ID"
// @Success      200         {array}   domain.EntryLog
// @Failure      404         {object}  response.Err
// @Router       /ceremonies/{ceremonyID}/fraud-cases [get]
// @Security     BearerAuth
func (h *VerificationHandler) HandleListFraudCases(ctx *gin.Context) {
	ceremonyID, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}

	logs, err := h.svc.ListFraudCases(ctx.Request.Context(), ceremonyID)
	if err != nil {
		renderServiceErr(ctx, "HandleListFraudCases -> h.svc.ListFraudCases", err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}
