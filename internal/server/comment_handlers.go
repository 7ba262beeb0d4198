package server

import (
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.Create(c.UserContext(), service.CreateCommentInput{
		UserID:  middleware.UserID(c),
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Description Comments of a visible post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	comments, err := s.commentService.List(c.UserContext(), middleware.UserID(c), postID, page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comments)
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Like a comment
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} service.ToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.LikeComment)
}

// UnlikeComment handles DELETE /api/comments/:id/like
// @Summary Remove a comment like
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} service.ToggleResult
// @Router /comments/{id}/like [delete]
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	return s.toggle(c, s.engagementService.UnlikeComment)
}
