package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/paycasso/paycasso/internal/account"
	"github.com/paycasso/paycasso/internal/identity"
)

// Locals keys set by SessionAuth.
const (
	LocalAuthUserID  = "auth_user_id"
	LocalAccessToken = "access_token"
)

// TokenVerifier resolves an access token to its user with the auth provider.
type TokenVerifier interface {
	GetUser(ctx context.Context, accessToken string) (identity.User, error)
}

// SessionAuth requires a Supabase access token from the bearer header or the
// session cookie. With a JWT secret the token is verified locally; otherwise
// the auth provider is asked.
func SessionAuth(jwtSecret string, users TokenVerifier, logger *slog.Logger) fiber.Handler {
	secret := []byte(jwtSecret)
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing session")
		}

		if len(secret) > 0 {
			userID, err := verifyHS256(token, secret)
			if err != nil || userID == "" {
				logger.Debug("session token rejected", slog.String("path", c.Path()), slog.Any("error", err))
				return fiber.NewError(http.StatusUnauthorized, "invalid session")
			}
			return authenticated(c, userID, token)
		}

		if users == nil {
			return fiber.NewError(http.StatusServiceUnavailable, "session verification unavailable")
		}
		user, err := users.GetUser(c.UserContext(), token)
		if err != nil {
			if _, rejected := identity.AsRejected(err); !rejected {
				logger.Error("session lookup failed", slog.String("path", c.Path()), slog.Any("error", err))
				return fiber.NewError(http.StatusServiceUnavailable, "session verification unavailable")
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid session")
		}
		if user.ID == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid session")
		}
		return authenticated(c, user.ID, token)
	}
}

func authenticated(c *fiber.Ctx, authUserID, token string) error {
	c.Locals(LocalAuthUserID, authUserID)
	c.Locals(LocalAccessToken, token)
	return c.Next()
}

func sessionToken(c *fiber.Ctx) string {
	authz := c.Get(fiber.HeaderAuthorization)
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return c.Cookies(account.AccessTokenCookie)
}

// verifyHS256 checks the signature and expiry of a Supabase access token and
// returns its subject.
func verifyHS256(token string, secret []byte) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.GetSubject()
}
