package user

import (
	"strings"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/session"

	"github.com/gofiber/fiber/v2"
)

const maxAvatarSize = 5 << 20

func RegisterRoutes(r fiber.Router, svc *Service, sessions *session.Store, cookies *session.CookieManager, authMiddleware, adminMiddleware fiber.Handler) {
	r.Get("/:username", func(c *fiber.Ctx) error {
		u, err := svc.Profile(c.Context(), c.Params("username"))
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	r.Patch("/profile", authMiddleware, func(c *fiber.Ctx) error {
		var req Profile
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		u, err := svc.UpdateProfile(c.Context(), localUserID(c), req)
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	r.Patch("/avatar", authMiddleware, func(c *fiber.Ctx) error {
		header, err := c.FormFile("image")
		if err != nil {
			return apperr.ValidationField("image", "image file required")
		}
		if header.Size > maxAvatarSize {
			return apperr.ValidationField("image", "image too large")
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return apperr.ValidationField("image", "file must be an image")
		}

		file, err := header.Open()
		if err != nil {
			return apperr.Upload(err)
		}
		defer file.Close()

		u, err := svc.ChangeAvatar(c.Context(), localUserID(c), AvatarUpload{
			Name:        "avatar_" + localUserID(c),
			Content:     file,
			Size:        header.Size,
			ContentType: contentType,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	})

	r.Delete("/avatar", authMiddleware, func(c *fiber.Ctx) error {
		u, err := svc.RemoveAvatar(c.Context(), localUserID(c))
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	r.Patch("/username", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		u, err := svc.ChangeUsername(c.Context(), localUserID(c), req.Username, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(u)
	})

	r.Patch("/password", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			Password        string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		if err := svc.ChangePassword(c.Context(), localUserID(c), req.CurrentPassword, req.Password); err != nil {
			return err
		}

		// The caller is logged out after a password change.
		if jti, ok := c.Locals(session.KeyJTI).(string); ok {
			if exp, ok := c.Locals(session.KeyExpiresAt).(time.Time); ok {
				_ = sessions.Revoke(c.Context(), jti, time.Until(exp))
			}
		}
		cookies.Clear(c)
		return c.JSON(fiber.Map{"message": "password changed"})
	})

	r.Patch("/:id/block", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Blocked bool `json:"blocked"`
		}
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid payload")
		}
		if err := svc.SetBlocked(c.Context(), c.Params("id"), req.Blocked); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"blocked": req.Blocked})
	})
}

func localUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(session.KeyUserID).(string)
	return id
}
