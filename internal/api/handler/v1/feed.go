package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gradpass/ceremony-tickets/internal/api/handler/v1/response"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type FeedHub interface {
	Subscribe(ctx context.Context, ceremonyID uint) (*gatefeed.Subscriber, error)
	Unsubscribe(s *gatefeed.Subscriber)
}

type FeedHandler struct {
	hub        FeedHub
	upgrader   websocket.Upgrader
	ceremonies CeremonyService
}

// NewFeedHandler serves the live gate feed. An empty allowedOrigins accepts
// any origin.
func NewFeedHandler(hub FeedHub, ceremonies CeremonyService, allowedOrigins []string) *FeedHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &FeedHandler{
		hub:        hub,
		ceremonies: ceremonies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(origins) == 0 || origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// HandleFeed godoc
// @Summary      Live gate feed
// @Description  Streams admissions, duplicates and fraud alerts for a ceremony over a websocket. Browsers may pass the token as access_token.
// @Tags         verification
// @Produce      json
// @Param        ceremonyID  path      int  true  "Ceremony ID"
// @Success      101         {string}  string  "Switching Protocols to WebSocket"
// @Failure      404         {object}  response.Err
// @Failure      503         {object}  response.Err
// @Router       /ceremonies/{ceremonyID}/feed [get]
// @Security     BearerAuth
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	ceremonyID, ok := pathID(ctx, "ceremonyID")
	if !ok {
		return
	}
	if _, err := h.ceremonies.GetCeremony(ctx.Request.Context(), ceremonyID); err != nil {
		renderServiceErr(ctx, "HandleFeed -> h.ceremonies.GetCeremony", err)
		return
	}

	sub, err := h.hub.Subscribe(ctx.Request.Context(), ceremonyID)
	if err != nil {
		if errors.Is(err, gatefeed.ErrHubClosed) {
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
			return
		}
		renderServiceErr(ctx, "HandleFeed -> h.hub.Subscribe", err)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.hub.Unsubscribe(sub)
		zap.L().Warn("gate feed upgrade failed", zap.Error(err))
		return
	}

	go h.readPump(conn, sub)
	h.writePump(conn, sub)
}

// readPump discards client messages and unsubscribes once the peer goes away.
func (h *FeedHandler) readPump(conn *websocket.Conn, sub *gatefeed.Subscriber) {
	defer h.hub.Unsubscribe(sub)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("gate feed client closed", zap.Error(err))
			}
			return
		}
	}
}

func (h *FeedHandler) writePump(conn *websocket.Conn, sub *gatefeed.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
