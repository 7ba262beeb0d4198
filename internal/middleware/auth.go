// Package middleware provides the fiber middleware shared by every route:
// authentication, rate limiting, structured logging, tracing and metrics.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "murmur-api"
	TokenAudience = "murmur-client"
	TokenTTL      = 7 * 24 * time.Hour
	TicketTTL     = 60 * time.Second

	blacklistPrefix = "blacklist:"
	ticketKeyFormat = "ws_ticket:%s"
)

var errInvalidToken = errors.New("invalid or expired token")

// Claims are the verified fields of a session token.
type Claims struct {
	UserID    uint
	Username  string
	ID        string
	ExpiresAt time.Time
}

// Authenticator issues and verifies session tokens. Revocation and
// websocket tickets need Redis; without it both are skipped.
type Authenticator struct {
	secret []byte
	rdb    *redis.Client
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator signing with secret.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secret), rdb: rdb, now: time.Now}
}

// Issue signs a token for the user with a fresh jti.
func (a *Authenticator) Issue(userID uint, username string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies signature, lifetime, issuer, audience and revocation.
func (a *Authenticator) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	sub, _ := mc["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return nil, errInvalidToken
	}
	claims := &Claims{UserID: uint(id)}
	claims.Username, _ = mc["username"].(string)
	claims.ID, _ = mc["jti"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.ID != "" && a.rdb != nil {
		n, err := a.rdb.Exists(ctx, blacklistPrefix+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, errors.New("token has been revoked")
		}
	}
	return claims, nil
}

// Revoke blacklists the token's jti until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err()
}

// IssueTicket creates a single-use websocket ticket for userID.
func (a *Authenticator) IssueTicket(ctx context.Context, userID uint) (string, error) {
	if a.rdb == nil {
		return "", errors.New("websocket tickets require redis")
	}
	ticket := uuid.NewString()
	key := fmt.Sprintf(ticketKeyFormat, ticket)
	if err := a.rdb.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), TicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

func (a *Authenticator) redeemTicket(ctx context.Context, ticket string) (uint, bool) {
	if a.rdb == nil {
		return 0, false
	}
	raw, err := a.rdb.GetDel(ctx, fmt.Sprintf(ticketKeyFormat, ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func setUser(c *fiber.Ctx, claims *Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("claims", claims)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))
}

// Required rejects requests without a valid session. Websocket routes
// authenticate with a single-use ticket instead of a bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"
		if ticket := c.Query("ticket"); ticket != "" {
			if userID, ok := a.redeemTicket(c.UserContext(), ticket); ok {
				setUser(c, &Claims{UserID: userID})
				return c.Next()
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		token := BearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		claims, err := a.Parse(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		setUser(c, claims)
		return c.Next()
	}
}

// Optional identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := BearerToken(c); token != "" {
			if claims, err := a.Parse(c.UserContext(), token); err == nil {
				setUser(c, claims)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// CurrentClaims returns the verified claims of a bearer-authenticated request.
func CurrentClaims(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals("claims").(*Claims)
	return claims
}
