package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assembly-dashboard-be/internal/dto"
	"assembly-dashboard-be/internal/pkg/logger"
	"assembly-dashboard-be/internal/pkg/serverutils"
	"assembly-dashboard-be/internal/service"
	internalWS "assembly-dashboard-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// frameTimeout bounds the work one inbound frame may trigger.
const frameTimeout = 30 * time.Second

type DashboardHandler struct {
	dashboard service.IDashboardService
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewDashboardHandler(dashboard service.IDashboardService, hub *internalWS.Hub, log logger.ILogger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		hub:       hub,
		logger:    log,
	}
}

// ServeWs attaches a websocket listener to one dashboard session. The session must exist.
func (h *DashboardHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, err := h.dashboard.State(c.UserContext(), sessionID); err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("DashboardHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID, func(message []byte) []byte {
				return h.HandleFrame(sessionID, message)
			})
			h.logger.Info("DashboardHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// HandleFrame runs one inbound frame and returns the reply for the sender.
// Dispatch results also reach every listener through the event bus.
func (h *DashboardHandler) HandleFrame(sessionID string, message []byte) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	var frame dto.ClientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return h.reply(sessionID, "error", fiber.Map{"message": fmt.Sprintf("malformed frame: %v", err)})
	}
	if err := serverutils.ValidateRequest(frame); err != nil {
		return h.reply(sessionID, "error", fiber.Map{"message": err.Error()})
	}

	var (
		data interface{}
		err  error
	)
	switch frame.Action {
	case dto.ActionDispatch:
		data, err = h.dashboard.Dispatch(ctx, sessionID, &dto.DispatchEventRequest{Kind: frame.Kind, Payload: frame.Payload})
	case dto.ActionLoadView:
		data, err = h.dashboard.LoadView(ctx, sessionID, frame.View)
	case dto.ActionState:
		data, err = h.dashboard.State(ctx, sessionID)
	}
	if err != nil {
		status := fiber.StatusInternalServerError
		var serr *serverutils.StatusError
		if errors.As(err, &serr) {
			status = serr.Status
		}
		return h.reply(sessionID, "error", fiber.Map{"code": status, "message": err.Error()})
	}
	return h.reply(sessionID, frame.Action, data)
}

func (h *DashboardHandler) reply(sessionID, msgType string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("DashboardHandler", "Failed to encode reply", map[string]interface{}{"error": err.Error()})
		return nil
	}
	out, _ := json.Marshal(dto.PushMessage{Type: msgType, SessionID: sessionID, Data: raw})
	return out
}

func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/dashboard/:id", h.ServeWs)
}
