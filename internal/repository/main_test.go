package repository

import (
	"fmt"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	return testutil.SQLite(t)
}

type fixtures struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

func newFixtures(t *testing.T, db *gorm.DB) *fixtures {
	return &fixtures{t: t, db: db}
}

func (f *fixtures) user(username string, private bool) *models.User {
	f.t.Helper()
	f.n++
	u := &models.User{
		Name:      username,
		Username:  username,
		Email:     username + "@example.com",
		Password:  "x",
		IsPrivate: private,
		CreatedAt: epoch.Add(time.Duration(f.n) * time.Hour),
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixtures) post(author *models.User, private bool, at time.Duration) *models.Post {
	f.t.Helper()
	p := &models.Post{
		UserID:    author.ID,
		Content:   fmt.Sprintf("post by %s", author.Username),
		IsPrivate: private,
		CreatedAt: epoch.Add(at),
	}
	require.NoError(f.t, f.db.Omit("User", "Hashtags").Create(p).Error)
	return p
}

func (f *fixtures) follow(from, to *models.User, state models.FollowState, at time.Duration) {
	f.t.Helper()
	require.NoError(f.t, f.db.Omit("Follower", "Followee").Create(&models.Follow{
		FollowerID: from.ID, FolloweeID: to.ID, State: state, CreatedAt: epoch.Add(at),
	}).Error)
}

func (f *fixtures) repost(u *models.User, p *models.Post, at time.Duration) {
	f.t.Helper()
	require.NoError(f.t, f.db.Omit("User").Create(&models.Repost{UserID: u.ID, PostID: p.ID, CreatedAt: epoch.Add(at)}).Error)
}

func (f *fixtures) like(u *models.User, p *models.Post) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.Like{UserID: u.ID, TargetKind: models.TargetPost, TargetID: p.ID}).Error)
}

type staticResolver struct{}

func (staticResolver) Resolve(m *models.Media) {
	if m != nil {
		m.URL = "https://cdn.test/" + m.FilePath
	}
}

func timeStep(i int) time.Duration {
	return time.Duration(i+1) * time.Minute
}
