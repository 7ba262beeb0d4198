package server

import (
	"murmur/internal/middleware"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ChatHistory handles GET /api/chat/everyone
// @Summary Everyone room history
// @Description Most recent messages of the shared room, oldest first
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Number of messages"
// @Success 200 {array} models.ChatMessage
// @Router /chat/everyone [get]
func (s *Server) ChatHistory(c *fiber.Ctx) error {
	msgs, err := s.chatService.Recent(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msgs)
}

// SendChat handles POST /api/chat/everyone
// @Summary Post to the everyone room
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{content=string} true "Message"
// @Success 201 {object} models.ChatMessage
// @Failure 400 {object} models.ErrorResponse
// @Router /chat/everyone [post]
func (s *Server) SendChat(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	msg, err := s.chatService.Send(c.UserContext(), middleware.UserID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
