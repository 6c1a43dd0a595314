package follow

import (
	"strconv"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/session"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 25

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		username, err := usernameFromBody(c)
		if err != nil {
			return err
		}
		userID, _ := c.Locals(session.KeyUserID).(string)
		if err := svc.Follow(c.Context(), userID, username); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "followed"})
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		username, err := usernameFromBody(c)
		if err != nil {
			return err
		}
		userID, _ := c.Locals(session.KeyUserID).(string)
		removed, err := svc.Unfollow(c.Context(), userID, username)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"removed": removed})
	})

	r.Get("/count/followers", func(c *fiber.Ctx) error {
		username := c.Query("username")
		if username == "" {
			return apperr.Validation("username required")
		}
		n, err := svc.CountFollowers(c.Context(), username)
		if err != nil {
			return err
		}
		return c.JSON(n)
	})

	r.Get("/count/followings", func(c *fiber.Ctx) error {
		username := c.Query("username")
		if username == "" {
			return apperr.Validation("username required")
		}
		n, err := svc.CountFollowings(c.Context(), username)
		if err != nil {
			return err
		}
		return c.JSON(n)
	})

	r.Get("/followers/:username", func(c *fiber.Ctx) error {
		page, pageSize := pagination(c)
		result, err := svc.ListFollowers(c.Context(), c.Params("username"), page, pageSize)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	r.Get("/followings/:username", func(c *fiber.Ctx) error {
		page, pageSize := pagination(c)
		result, err := svc.ListFollowings(c.Context(), c.Params("username"), page, pageSize)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})
}

func usernameFromBody(c *fiber.Ctx) (string, error) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return "", apperr.Validation("username required")
	}
	return req.Username, nil
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
