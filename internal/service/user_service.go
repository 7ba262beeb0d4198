package service

import (
	"context"
	"strings"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
)

const (
	DefaultDirectoryLimit = 20
	MaxDirectoryLimit     = 100
	SuggestionsLimit      = 5
)

// UserService lists and searches users.
type UserService struct {
	users repository.UserRepository
	graph EdgeSource
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, graph EdgeSource) *UserService {
	return &UserService{users: users, graph: graph}
}

// DirectoryInput filters the user directory.
type DirectoryInput struct {
	ViewerID uint
	Search   string
	Sort     string
	Limit    int
	Offset   int
}

// Directory lists users in the requested order annotated for the viewer.
// Sorts relative to the viewer need a signed-in viewer.
func (s *UserService) Directory(ctx context.Context, in DirectoryInput) ([]feed.Person, error) {
	sort := repository.ParseUserSort(in.Sort)
	if sort.RequiresViewer() && in.ViewerID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to use this sort")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultDirectoryLimit
	}
	if limit > MaxDirectoryLimit {
		limit = MaxDirectoryLimit
	}
	offset := max(in.Offset, 0)

	conns, err := s.users.Directory(ctx, repository.DirectoryQuery{
		ViewerID: in.ViewerID,
		Search:   strings.TrimSpace(in.Search),
		Sort:     sort,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.graph, in.ViewerID)
	if err != nil {
		return nil, err
	}
	return feed.Describe(conns, in.ViewerID, edges), nil
}

// Search is Directory restricted to users whose name or username contains q.
func (s *UserService) Search(ctx context.Context, in DirectoryInput) ([]feed.Person, error) {
	if strings.TrimSpace(in.Search) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.Directory(ctx, in)
}

// Suggestions returns the most followed users the viewer does not follow yet.
func (s *UserService) Suggestions(ctx context.Context, viewerID uint) ([]feed.Person, error) {
	conns, err := s.users.Suggestions(ctx, viewerID, SuggestionsLimit)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.graph, viewerID)
	if err != nil {
		return nil, err
	}
	return feed.Describe(conns, viewerID, edges), nil
}

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
