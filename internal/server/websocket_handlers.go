package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var pongFrame = []byte(`{"type":"pong"}`)

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Websocket ticket
// @Description Single-use ticket for /api/ws?ticket=..., valid for 60 seconds
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.auth.IssueTicket(c.UserContext(), middleware.UserID(c))
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "ws ticket unavailable", slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(middleware.TicketTTL.Seconds()),
	})
}

func (s *Server) upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler streams the caller's notifications, follow updates and
// everyone-room messages.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(uint)
		if userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var frame struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(message, &frame) == nil && frame.Type == "ping" {
				c.TrySend(pongFrame)
			}
		}

		if count, err := s.notificationService.UnreadCount(context.Background(), userID); err == nil {
			if payload, err := notifications.NewEvent(notifications.EventUnreadCount, fiber.Map{"count": count}).Encode(); err == nil {
				client.TrySend([]byte(payload))
			}
		}

		go client.WritePump()
		client.ReadPump()
	})
}
