package server

import (
	"context"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create a post or reply
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{content=string,parent_post_id=int,is_private=bool} true "Post"
// @Success 201 {object} feed.Item
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content      string `json:"content"`
		ParentPostID *uint  `json:"parent_post_id"`
		IsPrivate    *bool  `json:"is_private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		UserID:       middleware.UserID(c),
		Content:      req.Content,
		ParentPostID: req.ParentPostID,
		IsPrivate:    req.IsPrivate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} feed.Item
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.postService.Get(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(item)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete own post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type toggleAction func(ctx context.Context, userID, targetID uint) (*service.ToggleResult, error)

func (s *Server) toggle(c *fiber.Ctx, action toggleAction) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := action(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags engagement
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.LikePost)
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Remove a like
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.UnlikePost)
}

// FavoritePost handles POST /api/posts/:id/favorite
// @Summary Bookmark a post
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Router /posts/{id}/favorite [post]
func (s *Server) FavoritePost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.FavoritePost)
}

// UnfavoritePost handles DELETE /api/posts/:id/favorite
// @Summary Remove a bookmark
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Router /posts/{id}/favorite [delete]
func (s *Server) UnfavoritePost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.UnfavoritePost)
}

// Repost handles POST /api/posts/:id/repost
// @Summary Repost
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Router /posts/{id}/repost [post]
func (s *Server) Repost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.Repost)
}

// Unrepost handles DELETE /api/posts/:id/repost
// @Summary Undo a repost
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.ToggleResult
// @Router /posts/{id}/repost [delete]
func (s *Server) Unrepost(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.Unrepost)
}
