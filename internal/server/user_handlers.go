package server

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) directoryInput(c *fiber.Ctx) service.DirectoryInput {
	page := parsePagination(c, service.DefaultDirectoryLimit)
	return service.DirectoryInput{
		ViewerID: middleware.UserID(c),
		Search:   c.Query("q"),
		Sort:     c.Query("sort"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
}

// ListUsers handles GET /api/users
// @Summary User directory
// @Description Lists users, optionally filtered by q and ordered by sort
// @Tags users
// @Produce json
// @Param q query string false "Search by name or username"
// @Param sort query string false "newest, popular, following, followers or friends"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} feed.Person
// @Failure 403 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	people, err := s.userService.Directory(c.UserContext(), s.directoryInput(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(people)
}

// SearchUsers handles GET /api/users/search?q=...
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} feed.Person
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	people, err := s.userService.Search(c.UserContext(), s.directoryInput(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(people)
}

// Suggestions handles GET /api/users/suggestions
// @Summary Who to follow
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} feed.Person
// @Router /users/suggestions [get]
func (s *Server) Suggestions(c *fiber.Ctx) error {
	people, err := s.userService.Suggestions(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(people)
}

// GetMe handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

type updateProfileRequest struct {
	Name               *string `json:"name"`
	Username           *string `json:"username"`
	Bio                *string `json:"bio"`
	Location           *string `json:"location"`
	Website            *string `json:"website"`
	DateOfBirth        *string `json:"date_of_birth"`
	Status             *string `json:"status"`
	IsPrivate          *bool   `json:"is_private"`
	RemoveProfileImage bool    `json:"remove_profile_image"`
	RemoveCoverImage   bool    `json:"remove_cover_image"`
}

// UpdateMe handles PUT /api/users/me
// @Summary Edit own profile
// @Description Accepts JSON, or multipart with profile_image and cover_image files
// @Tags users
// @Security BearerAuth
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 200 {object} feed.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req updateProfileRequest
	in := service.UpdateProfileInput{UserID: middleware.UserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid form data"))
		}
		req = formProfileRequest(form)
		if in.ProfileImage, err = formUpload(c, "profile_image"); err != nil {
			return fail(c, err)
		}
		if in.CoverImage, err = formUpload(c, "cover_image"); err != nil {
			return fail(c, err)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in.Name, in.Username, in.Bio = req.Name, req.Username, req.Bio
	in.Location, in.Website, in.Status = req.Location, req.Website, req.Status
	in.IsPrivate = req.IsPrivate
	in.RemoveProfileImage, in.RemoveCoverImage = req.RemoveProfileImage, req.RemoveCoverImage
	if req.DateOfBirth != nil && strings.TrimSpace(*req.DateOfBirth) != "" {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid date of birth"))
		}
		in.DateOfBirth = &dob
	}

	profile, err := s.profileService.Update(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

func formProfileRequest(form *multipart.Form) updateProfileRequest {
	field := func(key string) *string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	flag := func(key string) *bool {
		if v := field(key); v != nil {
			if b, err := strconv.ParseBool(*v); err == nil {
				return &b
			}
		}
		return nil
	}
	truthy := func(key string) bool {
		b := flag(key)
		return b != nil && *b
	}
	return updateProfileRequest{
		Name:               field("name"),
		Username:           field("username"),
		Bio:                field("bio"),
		Location:           field("location"),
		Website:            field("website"),
		DateOfBirth:        field("date_of_birth"),
		Status:             field("status"),
		IsPrivate:          flag("is_private"),
		RemoveProfileImage: truthy("remove_profile_image"),
		RemoveCoverImage:   truthy("remove_cover_image"),
	}
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func (s *Server) pageOptions(c *fiber.Ctx) service.PageOptions {
	page := parsePagination(c, 20)
	return service.PageOptions{Sort: c.Query("sort"), Limit: page.Limit, Offset: page.Offset}
}

// GetProfile handles GET /api/users/:username
// @Summary Profile page
// @Description Profile with one page of posts. sort is originals, reposts, latest, oldest or most_liked
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Param sort query string false "Feed sort"
// @Success 200 {object} service.ProfilePage
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	viewer, err := s.viewer(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := s.profileService.Show(c.UserContext(), viewer, c.Params("username"), s.pageOptions(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// GetReposts handles GET /api/users/:username/reposts
// @Summary Profile reposts
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.ProfilePage
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/reposts [get]
func (s *Server) GetReposts(c *fiber.Ctx) error {
	viewer, err := s.viewer(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := s.profileService.Reposts(c.UserContext(), viewer, c.Params("username"), s.pageOptions(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

func (s *Server) followList(c *fiber.Ctx, list repository.FollowList) error {
	people, err := s.followService.Lists(c.UserContext(), middleware.UserID(c), c.Params("username"), list, c.Query("sort"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(people)
}

// ListFollowers handles GET /api/users/:username/followers
// @Summary Followers
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Param sort query string false "latest, oldest, popular or least_followers"
// @Success 200 {array} feed.Person
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{username}/followers [get]
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	return s.followList(c, repository.ListFollowers)
}

// ListFollowing handles GET /api/users/:username/following
// @Summary Following
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} feed.Person
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{username}/following [get]
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	return s.followList(c, repository.ListFollowing)
}

// ListFriends handles GET /api/users/:username/friends
// @Summary Mutual follows
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} feed.Person
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{username}/friends [get]
func (s *Server) ListFriends(c *fiber.Ctx) error {
	return s.followList(c, repository.ListFriends)
}
