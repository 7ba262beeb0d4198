package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultPassword = "password123"
	maxUsernameBase = 24
)

var nonUsernameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	posts    repository.PostRepository
	comments repository.CommentRepository
	chat     repository.ChatRepository
	password string
	maxDays  int
	n        int
}

// NewFactory creates a Factory bound to db. The same seed yields the same data.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), cost)
	if err != nil {
		return nil, err
	}
	password := string(hashed)
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		db:       db,
		faker:    gofakeit.New(opts.Seed),
		posts:    repository.NewPostRepository(db, nil),
		comments: repository.NewCommentRepository(db, nil),
		chat:     repository.NewChatRepository(db, nil),
		password: password,
		maxDays:  maxDays,
	}, nil
}

// Username turns a generated handle into one that satisfies the username
// rules, suffixed with n to keep it unique.
func Username(raw string, n int) string {
	base := nonUsernameChars.ReplaceAllString(strings.ToLower(raw), "")
	if len(base) > maxUsernameBase {
		base = base[:maxUsernameBase]
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s_%d", base, n)
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a sample user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.n++
	username := Username(f.faker.Username(), f.n)
	user := &models.User{
		Name:      f.faker.Name(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.password,
		Bio:       f.faker.Sentence(10),
		Location:  f.faker.City(),
		Status:    f.faker.HipsterSentence(4),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		CreatedAt: f.pastTime(),
	}
	if f.faker.Number(0, 3) == 0 {
		user.Website = f.faker.URL()
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post by user with a couple of hashtags.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	content := f.faker.Paragraph(1, 2, 8, " ")
	for i := f.faker.Number(0, 2); i > 0; i-- {
		content += " #" + strings.ToLower(f.faker.HackerNoun())
	}
	post := &models.Post{
		UserID:    user.ID,
		Content:   content,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post, service.ExtractHashtags(post.Content)); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateChatMessage persists a message in the everyone room.
func (f *Factory) CreateChatMessage(ctx context.Context, user *models.User) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{UserID: user.ID, Content: f.faker.Sentence(6)}
	if err := f.chat.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}
