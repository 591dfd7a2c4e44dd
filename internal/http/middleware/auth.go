package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"

	"catalogapi/internal/config"
)

// UserIDLocalKey is the key under which Auth stores the authenticated user id (the token subject).
const UserIDLocalKey = "user_id"

var errNoBearer = errors.New("missing bearer token")

// Auth verifies HS256 bearer tokens and stores their subject under UserIDLocalKey.
// An invalid token is always rejected. A missing token is rejected only when required.
// With an empty cfg.Secret authentication is disabled and every request passes through.
func Auth(cfg config.AuthConfig, required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Secret == "" {
			return c.Next()
		}

		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if errors.Is(err, errNoBearer) && !required {
			return c.Next()
		}
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		sub, err := verifyToken(cfg, raw)
		if err != nil {
			zerolog.Ctx(c.UserContext()).Debug().Err(err).Str("component", "auth").Msg("token rejected")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDLocalKey, sub)
		logger := zerolog.Ctx(c.UserContext()).With().Str("user_id", sub).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))

		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoBearer
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

func verifyToken(cfg config.AuthConfig, raw string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is not valid")
	}
	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return "", errors.New("unexpected issuer")
	}
	if cfg.Audience != "" && !claims.VerifyAudience(cfg.Audience, true) {
		return "", errors.New("unexpected audience")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
