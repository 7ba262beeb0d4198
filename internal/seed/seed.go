// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	Users           int
	PostsPerUser    int
	PrivateRatio    float64
	FollowRatio     float64
	EngagementRatio float64
	ChatMessages    int
	MaxDays         int
	Seed            int64
	FastHash        bool
}

// DefaultOptions returns a small but well-connected social graph.
func DefaultOptions() Options {
	return Options{
		Users:           50,
		PostsPerUser:    4,
		PrivateRatio:    0.2,
		FollowRatio:     0.15,
		EngagementRatio: 0.1,
		ChatMessages:    30,
		MaxDays:         90,
	}
}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
	Pending  int
	Likes    int
	Reposts  int
	Messages int
}

// Seeder populates the database with users, follow edges, posts and
// engagement.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	follows repository.FollowRepository
	edges   repository.EngagementRepository
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: factory,
		follows: repository.NewFollowRepository(db, nil),
		edges:   repository.NewEngagementRepository(db),
	}, nil
}

// ClearAll deletes every seeded row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Exec("DELETE FROM post_hashtags").Error; err != nil {
		return fmt.Errorf("clear post_hashtags: %w", err)
	}
	tables := []any{
		&models.Notification{}, &models.ChatMessage{}, &models.Like{}, &models.Favorite{},
		&models.Repost{}, &models.Comment{}, &models.Media{}, &models.Hashtag{},
		&models.Post{}, &models.Follow{}, &models.User{},
	}
	for _, t := range tables {
		if err := db.Unscoped().Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "cleared seeded data")
	return nil
}

// Run creates the configured data set.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		private := s.factory.Chance(s.opts.PrivateRatio)
		u, err := s.factory.CreateUser(func(u *models.User) { u.IsPrivate = private })
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	middleware.Logger.InfoContext(ctx, "seeded users", slog.Int("count", res.Users))

	if err := s.seedFollows(ctx, users, res); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			private := u.IsPrivate && s.factory.Chance(0.5)
			p, err := s.factory.CreatePost(ctx, u, func(p *models.Post) { p.IsPrivate = private })
			if err != nil {
				return nil, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	res.Posts = len(posts)
	middleware.Logger.InfoContext(ctx, "seeded posts", slog.Int("count", res.Posts))

	if err := s.seedEngagement(ctx, users, posts, res); err != nil {
		return nil, err
	}

	for i := 0; i < s.opts.ChatMessages && len(users) > 0; i++ {
		if _, err := s.factory.CreateChatMessage(ctx, users[s.factory.Pick(len(users))]); err != nil {
			return nil, fmt.Errorf("create chat message: %w", err)
		}
		res.Messages++
	}
	return res, nil
}

// seedFollows links users. Edges to private accounts start pending and are
// accepted about half the time.
func (s *Seeder) seedFollows(ctx context.Context, users []*models.User, res *Result) error {
	for _, from := range users {
		for _, to := range users {
			if from.ID == to.ID || !s.factory.Chance(s.opts.FollowRatio) {
				continue
			}
			state := models.FollowAccepted
			if to.IsPrivate {
				state = models.FollowPending
			}
			created, _, err := s.follows.Request(ctx, from.ID, to.ID, state)
			if err != nil {
				return fmt.Errorf("follow: %w", err)
			}
			if !created {
				continue
			}
			if state == models.FollowPending && s.factory.Chance(0.5) {
				if _, err := s.follows.Accept(ctx, from.ID, to.ID); err != nil {
					return fmt.Errorf("accept follow: %w", err)
				}
				state = models.FollowAccepted
			}
			if state == models.FollowPending {
				res.Pending++
			} else {
				res.Follows++
			}
		}
	}
	middleware.Logger.InfoContext(ctx, "seeded follows", slog.Int("accepted", res.Follows), slog.Int("pending", res.Pending))
	return nil
}

// seedEngagement only touches public posts by other users so every edge is
// one the actor could have created through the API.
func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, res *Result) error {
	for _, u := range users {
		for _, p := range posts {
			if p.UserID == u.ID || p.IsPrivate || !s.factory.Chance(s.opts.EngagementRatio) {
				continue
			}
			if ok, err := s.edges.Like(ctx, u.ID, models.TargetPost, p.ID); err != nil {
				return fmt.Errorf("like: %w", err)
			} else if ok {
				res.Likes++
			}
			if s.factory.Chance(0.3) {
				if ok, err := s.edges.Repost(ctx, u.ID, p.ID); err != nil {
					return fmt.Errorf("repost: %w", err)
				} else if ok {
					res.Reposts++
				}
			}
			if s.factory.Chance(0.2) {
				if _, err := s.edges.Favorite(ctx, u.ID, models.TargetPost, p.ID); err != nil {
					return fmt.Errorf("favorite: %w", err)
				}
			}
			if s.factory.Chance(0.25) {
				if _, err := s.factory.CreateComment(ctx, u, p); err != nil {
					return fmt.Errorf("comment: %w", err)
				}
				res.Comments++
			}
		}
	}
	middleware.Logger.InfoContext(ctx, "seeded engagement",
		slog.Int("likes", res.Likes),
		slog.Int("reposts", res.Reposts),
		slog.Int("comments", res.Comments),
	)
	return nil
}
