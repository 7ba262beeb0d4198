package server

import (
	"log/slog"
	"net/url"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "murmur_oauth_state"

// GoogleRedirect handles GET /api/auth/google/redirect
// @Summary Start Google sign-in
// @Description Redirects the browser to Google's consent screen
// @Tags auth
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/google/redirect [get]
func (s *Server) GoogleRedirect(c *fiber.Ctx) error {
	state := uuid.NewString()
	target, err := s.authService.AuthCodeURL(state)
	if err != nil {
		return fail(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   s.config.Env == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(target, fiber.StatusFound)
}

// GoogleCallback handles GET /api/auth/google/callback
// @Summary Finish Google sign-in
// @Description Exchanges the authorization code, creating the account on first login
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State issued by the redirect"
// @Success 200 {object} service.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/google/callback [get]
func (s *Server) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid sign-in state"))
	}
	c.ClearCookie(oauthStateCookie)

	session, err := s.authService.LoginWithCode(c.UserContext(), c.Query("code"))
	if err != nil {
		return fail(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed in", slog.Uint64("user_id", uint64(session.User.ID)))

	if s.config.OAuthSuccessURL != "" {
		fragment := url.Values{"token": {session.Token}}
		return c.Redirect(s.config.OAuthSuccessURL+"#"+fragment.Encode(), fiber.StatusFound)
	}
	return c.JSON(session)
}

// Logout handles POST /api/auth/logout
// @Summary Sign out
// @Description Revokes the bearer token until it would have expired
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := middleware.CurrentClaims(c); claims != nil && claims.ID != "" {
		if err := s.auth.Revoke(c.UserContext(), claims); err != nil {
			return fail(c, err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
