package service

import (
	"context"
	"strings"
	"time"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

const (
	ProfileSortOriginals = "originals"
	ProfileSortReposts   = "reposts"
)

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return models.NewValidationError(err.Error())
}

// ProfileService shows profiles with their post feeds and edits the
// caller's own profile.
type ProfileService struct {
	users    repository.UserRepository
	graph    EdgeSource
	composer *feed.Composer
	media    *MediaService
}

// NewProfileService returns a new ProfileService.
func NewProfileService(users repository.UserRepository, graph EdgeSource, composer *feed.Composer, media *MediaService) *ProfileService {
	return &ProfileService{users: users, graph: graph, composer: composer, media: media}
}

// Filters echoes the effective feed options.
type Filters struct {
	Sort string `json:"sort"`
}

// ProfilePage is a profile with one page of its posts.
type ProfilePage struct {
	User    feed.Profile `json:"user"`
	Posts   *feed.Feed   `json:"posts"`
	Filters Filters      `json:"filters"`
}

// PageOptions selects the ordering and page of a profile feed.
type PageOptions struct {
	Sort   string
	Limit  int
	Offset int
}

// ProfileFeedRequest maps a profile sort value to the feed request for
// target: originals and reposts pick the candidate set, anything else is a
// combined feed ordered by the value.
func ProfileFeedRequest(target uint, viewer *models.User, opts PageOptions) feed.Request {
	req := feed.Request{TargetUserID: target, Viewer: viewer, Limit: opts.Limit, Offset: opts.Offset}
	switch opts.Sort {
	case ProfileSortOriginals:
		req.Context = feed.ContextProfileOriginals
	case ProfileSortReposts:
		req.Context = feed.ContextProfileReposts
	default:
		req.Context = feed.ContextProfileCombined
		req.Sort = feed.ParseSort(opts.Sort)
	}
	return req
}

// Show returns the profile of username as seen by viewer (nil when
// anonymous) with a page of posts.
func (s *ProfileService) Show(ctx context.Context, viewer *models.User, username string, opts PageOptions) (*ProfilePage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, viewer, user)
	if err != nil {
		return nil, err
	}

	req := ProfileFeedRequest(user.ID, viewer, opts)
	posts, err := s.composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	sort := opts.Sort
	if sort != ProfileSortOriginals && sort != ProfileSortReposts {
		sort = string(posts.Sort)
	}
	return &ProfilePage{User: profile, Posts: posts, Filters: Filters{Sort: sort}}, nil
}

// Reposts returns the posts username reposted. Users who never reposted
// anything have no reposts page.
func (s *ProfileService) Reposts(ctx context.Context, viewer *models.User, username string, opts PageOptions) (*ProfilePage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, viewer, user)
	if err != nil {
		return nil, err
	}
	if profile.RepostsCount == 0 {
		return nil, models.NewNotFoundError("Reposts", username)
	}
	posts, err := s.composer.Compose(ctx, feed.Request{
		Context:      feed.ContextProfileReposts,
		TargetUserID: user.ID,
		Viewer:       viewer,
		Sort:         feed.Sort(opts.Sort),
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ProfilePage{User: profile, Posts: posts, Filters: Filters{Sort: string(posts.Sort)}}, nil
}

func (s *ProfileService) profile(ctx context.Context, viewer *models.User, user *models.User) (feed.Profile, error) {
	var viewerID uint
	if viewer != nil {
		viewerID = viewer.ID
	}
	edges, err := viewerEdges(ctx, s.graph, viewerID)
	if err != nil {
		return feed.Profile{}, err
	}
	stats, err := s.users.Stats(ctx, user.ID)
	if err != nil {
		return feed.Profile{}, err
	}
	return feed.BuildProfile(user, viewerID, edges, stats), nil
}

// UpdateProfileInput carries the editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	UserID             uint
	Name               *string
	Username           *string
	Bio                *string
	Location           *string
	Website            *string
	DateOfBirth        *time.Time
	Status             *string
	IsPrivate          *bool
	ProfileImage       *Upload
	CoverImage         *Upload
	RemoveProfileImage bool
	RemoveCoverImage   bool
}

// Update edits the caller's profile and replaces or removes images.
func (s *ProfileService) Update(ctx context.Context, in UpdateProfileInput) (*feed.Profile, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, invalid(err)
		}
		user.Name = name
	}
	if in.Username != nil {
		username := validation.NormalizeUsername(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, invalid(err)
		}
		if username != user.Username {
			taken, err := s.users.UsernameExists(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Username is already taken", nil)
			}
			user.Username = username
		}
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, invalid(err)
		}
		user.Bio = *in.Bio
	}
	if in.Location != nil {
		user.Location = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		user.Website = strings.TrimSpace(*in.Website)
	}
	if in.DateOfBirth != nil {
		if err := validation.ValidateDateOfBirth(*in.DateOfBirth, time.Now()); err != nil {
			return nil, invalid(err)
		}
		user.DateOfBirth = in.DateOfBirth
	}
	if in.Status != nil {
		if err := validation.ValidateStatus(*in.Status); err != nil {
			return nil, invalid(err)
		}
		user.Status = *in.Status
	}
	if in.IsPrivate != nil {
		user.IsPrivate = *in.IsPrivate
	}

	if err := s.applyImage(ctx, user.ID, models.MediaProfile, in.ProfileImage, in.RemoveProfileImage); err != nil {
		return nil, err
	}
	if err := s.applyImage(ctx, user.ID, models.MediaCover, in.CoverImage, in.RemoveCoverImage); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, fresh, fresh)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileService) applyImage(ctx context.Context, userID uint, fileType string, up *Upload, remove bool) error {
	if s.media == nil || (up == nil && !remove) {
		return nil
	}
	if up != nil {
		_, err := s.media.ReplaceUserImage(ctx, userID, fileType, *up)
		return err
	}
	return s.media.RemoveUserImage(ctx, userID, fileType)
}
