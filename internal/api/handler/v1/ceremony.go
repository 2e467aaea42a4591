package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/request"
	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/domain"
)

type CeremonyService interface {
	CreateCeremony(ctx context.Context, ceremony domain.Ceremony) (domain.Ceremony, error)
	GetCeremony(ctx context.Context, id uint) (domain.Ceremony, error)
	GetGraduate(ctx context.Context, id uint) (domain.Graduate, error)
	RegisterGraduate(ctx context.Context, graduate domain.Graduate) (domain.Graduate, []domain.Ticket, error)
}

type CeremonyHandler struct {
	svc     CeremonyService
	tickets TicketService
}

func NewCeremonyHandler(svc CeremonyService, tickets TicketService) *CeremonyHandler {
	return &CeremonyHandler{
		svc:     svc,
		tickets: tickets,
	}
}

// HandleCreateCeremony godoc
// @Summary      Create a ceremony
// @Tags         ceremonies
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateCeremonyRequest  true  "Ceremony details"
// @Success      201    {object}  domain.Ceremony
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /ceremonies [post]
// @Security     BearerAuth
func (h *CeremonyHandler) HandleCreateCeremony(ctx *gin.Context) {
	var req request.CreateCeremonyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ceremony, err := h.svc.CreateCeremony(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		renderServiceErr(ctx, "HandleCreateCeremony -> h.svc.CreateCeremony", err)
		return
	}

	ctx.JSON(http.StatusCreated, ceremony)
}

// HandleGetCeremony godoc
// @Summary      Get a ceremony
// @Tags         ceremonies
// @Produce      json
// @Param        ceremonyID  path      int  true  "Ceremony ID"
// @Success      200         {object}  domain.Ceremony
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Router       /ceremonies/{ceremonyID} [get]
// @Security     BearerAuth
func (h *CeremonyHandler) HandleGetCeremony(ctx *gin.Context) {
	id, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}

	ceremony, err := h.svc.GetCeremony(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "HandleGetCeremony -> h.svc.GetCeremony", err)
		return
	}

	ctx.JSON(http.StatusOK, ceremony)
}

// HandleRegisterGraduate godoc
// @Summary      Register a graduate
// @Description  Creates the graduate and allocates the ceremony's base tickets in one step.
// @Tags         ceremonies,graduates
// @Accept       json
// @Produce      json
// @Param        ceremonyID  path      int                              true  "Ceremony ID"
// @Param        input       body      request.RegisterGraduateRequest  true  "Graduate details"
// @Success      201         {object}  response.RegisteredGraduate
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /ceremonies/{ceremonyID}/graduates [post]
// @Security     BearerAuth
func (h *CeremonyHandler) HandleRegisterGraduate(ctx *gin.Context) {
	ceremonyID, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}

	var req request.RegisterGraduateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	graduate, tickets, err := h.svc.RegisterGraduate(ctx.Request.Context(), req.ToDomain(ceremonyID))
	if err != nil {
		renderServiceErr(ctx, "HandleRegisterGraduate -> h.svc.RegisterGraduate", err)
		return
	}

	resp := response.RegisteredGraduate{Graduate: graduate, Tickets: make([]response.Ticket, 0, len(tickets))}
	for _, t := range tickets {
		rendered, err := renderTicket(h.tickets, t)
		if err != nil {
			renderServiceErr(ctx, "HandleRegisterGraduate -> renderTicket", err)
			return
		}
		resp.Tickets = append(resp.Tickets, rendered)
	}

	ctx.JSON(http.StatusCreated, resp)
}
