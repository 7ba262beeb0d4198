package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"murmur/internal/models"
	"murmur/internal/oauth"
	"murmur/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const maxUsernameAttempts = 1000

// TokenIssuer signs session tokens. *middleware.Authenticator implements it.
type TokenIssuer interface {
	Issue(userID uint, username string) (string, error)
}

// AuthService signs users in through an identity provider, provisioning an
// account on first login.
type AuthService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	provider oauth.Provider
	now      func() time.Time
}

// NewAuthService returns a new AuthService. provider may be nil when no
// identity provider is configured.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, provider oauth.Provider) *AuthService {
	return &AuthService{users: users, tokens: tokens, provider: provider, now: time.Now}
}

// Session is a signed-in user with their token.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthCodeURL returns where to send the browser to sign in.
func (s *AuthService) AuthCodeURL(state string) (string, error) {
	if s.provider == nil {
		return "", models.NewValidationError("Sign-in provider is not configured")
	}
	return s.provider.AuthCodeURL(state), nil
}

// LoginWithCode finishes the provider's redirect flow.
func (s *AuthService) LoginWithCode(ctx context.Context, code string) (*Session, error) {
	if s.provider == nil {
		return nil, models.NewValidationError("Sign-in provider is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, models.NewValidationError("Missing authorization code")
	}
	id, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, models.NewUnauthorizedError("Sign-in failed: " + err.Error())
	}
	return s.LoginWithIdentity(ctx, id)
}

// LoginWithIdentity finds the user by email or creates one, then issues a
// token.
func (s *AuthService) LoginWithIdentity(ctx context.Context, id *oauth.Identity) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, models.NewValidationError("Identity has no email")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = s.provision(ctx, email, id); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, User: user}, nil
}

func (s *AuthService) provision(ctx context.Context, email string, id *oauth.Identity) (*models.User, error) {
	password, err := randomPassword()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	base := UsernameBase(email)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		username, err := s.availableUsername(ctx, base)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(id.Name)
		if name == "" {
			name = username
		}
		verifiedAt := s.now()
		user := &models.User{
			Name:       name,
			Username:   username,
			Email:      email,
			Password:   password,
			AvatarURL:  id.Picture,
			IsVerified: true,
			VerifiedAt: &verifiedAt,
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !models.IsCode(err, models.CodeConflict) {
			return nil, err
		}
		// lost a race for the username or the email
		lastErr = err
		if existing, gerr := s.users.GetByEmail(ctx, email); gerr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, lastErr
}

// availableUsername returns base, or base followed by the smallest positive
// number that is not taken.
func (s *AuthService) availableUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", models.NewConflictError("No username available", nil)
}

// UsernameBase derives a username from the local part of an email address,
// keeping lowercase letters, digits and underscores.
func UsernameBase(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '+':
			b.WriteRune('_')
		}
	}
	base := b.String()
	if len(base) > 25 {
		base = base[:25]
	}
	for len(base) < 3 {
		base += "_"
	}
	return base
}

func randomPassword() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
