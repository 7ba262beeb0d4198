package server

import (
	"context"

	"murmur/internal/middleware"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

type followAction func(ctx context.Context, viewerID, otherID uint) (*service.FollowStatus, error)

func (s *Server) runFollow(c *fiber.Ctx, action followAction) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	status, err := action(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

// Follow handles POST /api/users/:id/follow
// @Summary Follow a user
// @Description Public accounts are followed at once, private ones receive a request
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.FollowStatus
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	return s.runFollow(c, s.followService.Follow)
}

// Unfollow handles DELETE /api/users/:id/follow
// @Summary Unfollow or withdraw a request
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.FollowStatus
// @Router /users/{id}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	return s.runFollow(c, s.followService.Unfollow)
}

// AcceptFollow handles POST /api/follows/:id/accept
// @Summary Accept a follow request
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Param id path int true "Requesting user ID"
// @Success 200 {object} service.FollowStatus
// @Failure 400 {object} models.ErrorResponse
// @Router /follows/{id}/accept [post]
func (s *Server) AcceptFollow(c *fiber.Ctx) error {
	return s.runFollow(c, s.followService.Accept)
}

// RejectFollow handles POST /api/follows/:id/reject
// @Summary Reject a follow request
// @Tags follows
// @Security BearerAuth
// @Produce json
// @Param id path int true "Requesting user ID"
// @Success 200 {object} service.FollowStatus
// @Failure 400 {object} models.ErrorResponse
// @Router /follows/{id}/reject [post]
func (s *Server) RejectFollow(c *fiber.Ctx) error {
	return s.runFollow(c, s.followService.Reject)
}
