package auth

import (
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/captcha"
	"github.com/danilwladich/2rnik/internal/session"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, verifier captcha.Verifier, cookies *session.CookieManager, authMiddleware fiber.Handler) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}

		// Antibot check runs before any backend work.
		if err := verifier.Verify(c.Context(), req.RecaptchaToken); err != nil {
			return err
		}

		u, token, err := svc.Register(c.Context(), req)
		if err != nil {
			return err
		}
		cookies.Set(c, token, time.Now().Add(sessionTTL))
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		u, token, err := svc.Login(c.Context(), req)
		if err != nil {
			return err
		}
		cookies.Set(c, token, time.Now().Add(sessionTTL))
		return c.JSON(u)
	})

	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals(session.KeyUserID).(string)
		u, err := svc.Me(c.Context(), userID)
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	r.Delete("/me", authMiddleware, func(c *fiber.Ctx) error {
		jti, _ := c.Locals(session.KeyJTI).(string)
		exp, _ := c.Locals(session.KeyExpiresAt).(time.Time)
		if err := svc.Logout(c.Context(), jti, exp); err != nil {
			return err
		}
		cookies.Clear(c)
		return c.JSON(fiber.Map{"message": "user logged out successfully"})
	})
}
