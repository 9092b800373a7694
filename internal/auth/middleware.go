package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/repository"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

const principalKey = "auth_principal"

// SessionCookieName is the httpOnly cookie carrying the session token.
const SessionCookieName = "commerce_session_token"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
	Role domain.Role
}

// AuthMiddleware validates session tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
	secure bool
}

// NewAuthMiddleware constructs middleware. secure controls the cookie
// Secure flag and should follow the production environment.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, secure bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, secure: secure}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing session token")
	}

	principal, err := m.resolve(c, token)
	if err != nil {
		return err
	}

	StorePrincipal(c, principal)
	return c.Next()
}

// HandleOptional resolves the principal when a valid token is present
// and proceeds unauthenticated otherwise.
func (m *AuthMiddleware) HandleOptional(c *fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Next()
	}
	principal, err := m.resolve(c, token)
	if err == nil {
		StorePrincipal(c, principal)
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx, token string) (*Principal, error) {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.NewTokenExpired()
		}
		return nil, apperrors.NewInvalidToken("invalid session token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user no longer exists")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewAccountDisabled()
	}
	if user.IsLocked(time.Now()) {
		return nil, apperrors.NewAccountLocked()
	}

	return &Principal{User: user, Role: user.Role}, nil
}

// SetSessionCookie writes the session token as an httpOnly cookie.
func (m *AuthMiddleware) SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

// ClearSessionCookie expires the session cookie.
func (m *AuthMiddleware) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookieName)
}

// StorePrincipal attaches the authenticated entity to the request.
func StorePrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
