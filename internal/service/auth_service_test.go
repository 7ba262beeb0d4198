package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUsernameBase(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice"},
		{"Jean.Luc+news@example.com", "jean_luc_news"},
		{"bo@example.com", "bo_"},
		{"ÿ@example.com", "___"},
		{"averyveryverylongaddressname1234@example.com", "averyveryverylongaddressn"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, UsernameBase(tt.email))
		})
	}
}

func TestAuthService_ProvisionsNewUser(t *testing.T) {
	var created *models.User
	users := &userRepoStub{
		usernameExistsFn: func(_ context.Context, username string) (bool, error) {
			return username == "alice", nil
		},
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 42
			created = u
			return nil
		},
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewAuthService(users, tokenStub{}, nil)
	svc.now = func() time.Time { return fixed }

	session, err := svc.LoginWithIdentity(context.Background(), &oauth.Identity{
		Email:   " Alice@Example.com ",
		Name:    "Alice",
		Picture: "https://img.test/alice.png",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "token-for-alice1", session.Token)
	assert.Equal(t, "alice1", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "Alice", created.Name)
	assert.Equal(t, "https://img.test/alice.png", created.AvatarURL)
	assert.True(t, created.IsVerified)
	require.NotNil(t, created.VerifiedAt)
	assert.Equal(t, fixed, *created.VerifiedAt)

	_, err = bcrypt.Cost([]byte(created.Password))
	assert.NoError(t, err)
}

func TestAuthService_ExistingUserSignsIn(t *testing.T) {
	users := &userRepoStub{
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, Username: "bob", Email: email}, nil
		},
		createFn: func(context.Context, *models.User) error {
			return errors.New("should not create")
		},
	}
	svc := NewAuthService(users, tokenStub{}, nil)

	session, err := svc.LoginWithIdentity(context.Background(), &oauth.Identity{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), session.User.ID)
	assert.Equal(t, "token-for-bob", session.Token)
}

func TestAuthService_LostUsernameRaceRetries(t *testing.T) {
	attempts := 0
	taken := map[string]bool{}
	users := &userRepoStub{
		usernameExistsFn: func(_ context.Context, username string) (bool, error) {
			return taken[username], nil
		},
		createFn: func(_ context.Context, u *models.User) error {
			attempts++
			if attempts == 1 {
				taken[u.Username] = true
				return models.NewConflictError("duplicate", nil)
			}
			return nil
		},
	}
	svc := NewAuthService(users, tokenStub{}, nil)

	session, err := svc.LoginWithIdentity(context.Background(), &oauth.Identity{Email: "carol@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "carol1", session.User.Username)
	assert.Equal(t, "carol1", session.User.Name)
}

func TestAuthService_LoginWithCode(t *testing.T) {
	users := &userRepoStub{}
	ctx := context.Background()

	_, err := NewAuthService(users, tokenStub{}, nil).LoginWithCode(ctx, "code")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	provider := &providerStub{identity: &oauth.Identity{Email: "dave@example.com"}}
	svc := NewAuthService(users, tokenStub{}, provider)

	url, err := svc.AuthCodeURL("xyz")
	require.NoError(t, err)
	assert.Contains(t, url, "state=xyz")

	_, err = svc.LoginWithCode(ctx, " ")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	session, err := svc.LoginWithCode(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "dave", session.User.Username)

	provider.err = errors.New("bad code")
	_, err = svc.LoginWithCode(ctx, "code")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthService_IdentityWithoutEmail(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, tokenStub{}, nil)

	_, err := svc.LoginWithIdentity(context.Background(), &oauth.Identity{Name: "nobody"})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
