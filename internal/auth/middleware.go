package auth

import (
	"strings"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/session"
	"github.com/danilwladich/2rnik/internal/user"

	"github.com/gofiber/fiber/v2"
)

// Middleware authenticates the session cookie (Authorization bearer as a
// fallback), rejects revoked tokens and blocked users, and stores the
// session identity in locals.
func Middleware(svc *Service, sessions *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(session.CookieName)
		if token == "" {
			token = bearerFromHeader(c.Get("Authorization"))
		}
		if token == "" {
			return apperr.Unauthorized("missing session token")
		}

		claims, err := svc.ParseToken(token)
		if err != nil {
			return err
		}
		if sessions.IsRevoked(c.Context(), claims.ID) {
			return apperr.Unauthorized("session revoked")
		}
		if sessions.IsBlocked(c.Context(), claims.UserID) {
			return apperr.Forbidden("user is blocked")
		}

		c.Locals(session.KeyUserID, claims.UserID)
		c.Locals(session.KeyRole, claims.Role)
		c.Locals(session.KeyJTI, claims.ID)
		c.Locals(session.KeyExpiresAt, claims.ExpiresAt.Time)
		return c.Next()
	}
}

// AdminOnly gates moderation routes; it must run after Middleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(session.KeyRole).(string); role != user.RoleAdmin {
			return apperr.Forbidden("admin access required")
		}
		return c.Next()
	}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
