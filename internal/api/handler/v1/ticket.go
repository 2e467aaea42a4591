package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/request"
	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/domain"
)

type TicketService interface {
	IssueBaseTickets(ctx context.Context, graduateID uint) ([]uint, error)
	IssueExtraTickets(ctx context.Context, graduateID uint, quantity int) ([]uint, error)
	GetTicket(ctx context.Context, ticketID uint) (domain.Ticket, error)
	ListGraduateTickets(ctx context.Context, graduateID uint) ([]domain.Ticket, error)
	ListTicketTransfers(ctx context.Context, ticketID uint) ([]domain.TicketTransfer, error)
	UpdateGuest(ctx context.Context, ticketID uint, name, email string) (domain.Ticket, error)
	CancelTicket(ctx context.Context, ticketID uint) (domain.Ticket, error)
	RegenerateQRCode(ctx context.Context, ticketID uint) (domain.Ticket, error)
	QRCodePayload(ticket domain.Ticket) (string, error)
	ArtifactURL(ticket domain.Ticket) string
}

type TicketHandler struct {
	svc       TicketService
	graduates GraduateLookup
}

func NewTicketHandler(svc TicketService, graduates GraduateLookup) *TicketHandler {
	return &TicketHandler{
		svc:       svc,
		graduates: graduates,
	}
}

func renderTicket(svc TicketService, t domain.Ticket) (response.Ticket, error) {
	payload, err := svc.QRCodePayload(t)
	if err != nil {
		return response.Ticket{}, err
	}

	return response.Ticket{
		Ticket:    t,
		QRPayload: payload,
		QRCodeURL: svc.ArtifactURL(t),
	}, nil
}

// HandleIssueBaseTickets godoc
// @Summary      Allocate base tickets
// @Description  Issues the ceremony's base ticket allotment to a graduate. Fails if already allocated.
// @Tags         tickets
// @Produce      json
// @Param        graduateID  path      int  true  "Graduate ID"
// @Success      201         {object}  response.IssuedTickets
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /graduates/{graduateID}/tickets/base [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleIssueBaseTickets(ctx *gin.Context) {
	graduateID, ok := pathID(ctx, "graduateID")
	if !ok {
		return
	}

	ids, err := h.svc.IssueBaseTickets(ctx.Request.Context(), graduateID)
	if err != nil {
		renderServiceErr(ctx, "HandleIssueBaseTickets -> h.svc.IssueBaseTickets", err)
		return
	}

	ctx.JSON(http.StatusCreated, response.IssuedTickets{GraduateID: graduateID, TicketIDs: ids})
}

// HandleIssueExtraTickets godoc
// @Summary      Issue extra tickets
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        graduateID  path      int                               true  "Graduate ID"
// @Param        input       body      request.IssueExtraTicketsRequest  true  "Quantity"
// @Success      201         {object}  response.IssuedTickets
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /graduates/{graduateID}/tickets/extra [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleIssueExtraTickets(ctx *gin.Context) {
	graduateID, ok := pathID(ctx, "graduateID")
	if !ok {
		return
	}

	var req request.IssueExtraTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ids, err := h.svc.IssueExtraTickets(ctx.Request.Context(), graduateID, req.Quantity)
	if err != nil {
		renderServiceErr(ctx, "HandleIssueExtraTickets -> h.svc.IssueExtraTickets", err)
		return
	}

	ctx.JSON(http.StatusCreated, response.IssuedTickets{GraduateID: graduateID, TicketIDs: ids})
}

// HandleListGraduateTickets godoc
// @Summary      List a graduate's tickets
// @Tags         tickets
// @Produce      json
// @Param        graduateID  path      int  true  "Graduate ID"
// @Success      200         {array}   response.Ticket
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Router       /graduates/{graduateID}/tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleListGraduateTickets(ctx *gin.Context) {
	graduateID, ok := pathID(ctx, "graduateID")
	if !ok {
		return
	}
	if !authorizeGraduate(ctx, h.graduates, graduateID) {
		return
	}

	tickets, err := h.svc.ListGraduateTickets(ctx.Request.Context(), graduateID)
	if err != nil {
		renderServiceErr(ctx, "HandleListGraduateTickets -> h.svc.ListGraduateTickets", err)
		return
	}

	resp := make([]response.Ticket, 0, len(tickets))
	for _, t := range tickets {
		rendered, err := renderTicket(h.svc, t)
		if err != nil {
			renderServiceErr(ctx, "HandleListGraduateTickets -> renderTicket", err)
			return
		}
		resp = append(resp, rendered)
	}

	ctx.JSON(http.StatusOK, resp)
}

// loadOwnedTicket fetches the ticket and applies the graduate ownership check.
func (h *TicketHandler) loadOwnedTicket(ctx *gin.Context, op string) (domain.Ticket, bool) {
	ticketID, ok := pathID(ctx, "ticketID")
	if !ok {
		return domain.Ticket{}, false
	}

	ticket, err := h.svc.GetTicket(ctx.Request.Context(), ticketID)
	if err != nil {
		renderServiceErr(ctx, op+" -> h.svc.GetTicket", err)
		return domain.Ticket{}, false
	}
	if !authorizeGraduate(ctx, h.graduates, ticket.GraduateID) {
		return domain.Ticket{}, false
	}

	return ticket, true
}

// HandleGetTicket godoc
// @Summary      Get a ticket
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {object}  response.Ticket
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Router       /tickets/{ticketID} [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleGetTicket(ctx *gin.Context) {
	ticket, ok := h.loadOwnedTicket(ctx, "HandleGetTicket")
	if !ok {
		return
	}

	rendered, err := renderTicket(h.svc, ticket)
	if err != nil {
		renderServiceErr(ctx, "HandleGetTicket -> renderTicket", err)
		return
	}

	ctx.JSON(http.StatusOK, rendered)
}

// HandleListTicketTransfers godoc
// @Summary      List a ticket's transfer history
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {array}   domain.TicketTransfer
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Router       /tickets/{ticketID}/transfers [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleListTicketTransfers(ctx *gin.Context) {
	ticket, ok := h.loadOwnedTicket(ctx, "HandleListTicketTransfers")
	if !ok {
		return
	}

	transfers, err := h.svc.ListTicketTransfers(ctx.Request.Context(), ticket.ID)
	if err != nil {
		renderServiceErr(ctx, "HandleListTicketTransfers -> h.svc.ListTicketTransfers", err)
		return
	}

	ctx.JSON(http.StatusOK, transfers)
}

// HandleUpdateGuest godoc
// @Summary      Name the guest of a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        ticketID  path      int                         true  "Ticket ID"
// @Param        input     body      request.UpdateGuestRequest  true  "Guest details"
// @Success      200       {object}  domain.Ticket
// @Failure      400       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Router       /tickets/{ticketID}/guest [put]
// @Security     BearerAuth
func (h *TicketHandler) HandleUpdateGuest(ctx *gin.Context) {
	ticket, ok := h.loadOwnedTicket(ctx, "HandleUpdateGuest")
	if !ok {
		return
	}

	var req request.UpdateGuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateGuest(ctx.Request.Context(), ticket.ID, req.GuestName, req.GuestEmail)
	if err != nil {
		renderServiceErr(ctx, "HandleUpdateGuest -> h.svc.UpdateGuest", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleCancelTicket godoc
// @Summary      Cancel a ticket
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {object}  domain.Ticket
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Router       /tickets/{ticketID}/cancel [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleCancelTicket(ctx *gin.Context) {
	ticketID, ok := pathID(ctx, "ticketID")
	if !ok {
		return
	}

	ticket, err := h.svc.CancelTicket(ctx.Request.Context(), ticketID)
	if err != nil {
		renderServiceErr(ctx, "HandleCancelTicket -> h.svc.CancelTicket", err)
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}

// HandleRegenerateQRCode godoc
// @Summary      Regenerate a ticket's QR image
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      int  true  "Ticket ID"
// @Success      200       {object}  response.Ticket
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/qr [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleRegenerateQRCode(ctx *gin.Context) {
	ticketID, ok := pathID(ctx, "ticketID")
	if !ok {
		return
	}

	ticket, err := h.svc.RegenerateQRCode(ctx.Request.Context(), ticketID)
	if err != nil {
		renderServiceErr(ctx, "HandleRegenerateQRCode -> h.svc.RegenerateQRCode", err)
		return
	}

	rendered, err := renderTicket(h.svc, ticket)
	if err != nil {
		renderServiceErr(ctx, "HandleRegenerateQRCode -> renderTicket", err)
		return
	}

	ctx.JSON(http.StatusOK, rendered)
}
