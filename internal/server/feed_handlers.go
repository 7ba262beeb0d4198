package server

import (
	"murmur/internal/feed"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) composeFor(c *fiber.Ctx, ctxKind feed.Context) error {
	viewer, err := s.viewer(c)
	if err != nil {
		return fail(c, err)
	}
	page := parsePagination(c, 20)
	out, err := s.composer.Compose(c.UserContext(), feed.Request{
		Context: ctxKind,
		Viewer:  viewer,
		Sort:    feed.Sort(c.Query("sort")),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// FollowingFeed handles GET /api/feed/following
// @Summary Following timeline
// @Description Posts authored by users the viewer follows with an accepted edge
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param sort query string false "latest, oldest, most_liked, reposted_friends or following"
// @Success 200 {object} feed.Feed
// @Failure 403 {object} models.ErrorResponse
// @Router /feed/following [get]
func (s *Server) FollowingFeed(c *fiber.Ctx) error {
	return s.composeFor(c, feed.ContextFollowing)
}

// FavoritesFeed handles GET /api/feed/favorites
// @Summary Bookmarked posts
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Success 200 {object} feed.Feed
// @Failure 403 {object} models.ErrorResponse
// @Router /feed/favorites [get]
func (s *Server) FavoritesFeed(c *fiber.Ctx) error {
	return s.composeFor(c, feed.ContextFavorites)
}

// LikedFeed handles GET /api/feed/liked
// @Summary Liked posts
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Success 200 {object} feed.Feed
// @Failure 403 {object} models.ErrorResponse
// @Router /feed/liked [get]
func (s *Server) LikedFeed(c *fiber.Ctx) error {
	return s.composeFor(c, feed.ContextLiked)
}
