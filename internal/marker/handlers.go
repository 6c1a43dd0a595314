package marker

import (
	"strconv"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/session"
	"github.com/danilwladich/2rnik/internal/user"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultVisiblePageSize = 100
	defaultPendingPageSize = 25
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		box, err := boundingBoxFromQuery(c)
		if err != nil {
			return err
		}
		page, pageSize := pagination(c, defaultVisiblePageSize)
		markers, err := svc.ListVisible(c.Context(), box, page, pageSize)
		if err != nil {
			return err
		}
		return c.JSON(markers)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		sub, err := submissionFromForm(c)
		if err != nil {
			return err
		}
		created, err := svc.Create(c.Context(), sub)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/pending", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		page, pageSize := pagination(c, defaultPendingPageSize)
		markers, err := svc.ListPending(c.Context(), page, pageSize)
		if err != nil {
			return err
		}
		return c.JSON(markers)
	})

	r.Post("/favorite", authMiddleware, func(c *fiber.Ctx) error {
		markerID, err := markerIDFromBody(c)
		if err != nil {
			return err
		}
		if err := svc.Favorite(c.Context(), markerID, localUserID(c)); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "location added to favorites"})
	})

	r.Delete("/favorite", authMiddleware, func(c *fiber.Ctx) error {
		markerID, err := markerIDFromBody(c)
		if err != nil {
			return err
		}
		if err := svc.Unfavorite(c.Context(), markerID, localUserID(c)); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "location removed from favorites"})
	})

	r.Post("/report", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			MarkerID string `json:"markerId"`
			Reason   string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil || req.MarkerID == "" {
			return apperr.Validation("marker id required")
		}
		if err := svc.Report(c.Context(), req.MarkerID, localUserID(c), req.Reason); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "marker reported"})
	})

	r.Patch("/:id/confirm", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Confirm(c.Context(), c.Params("id")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"confirmed": true})
	})

	r.Delete("/:id", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		result, err := svc.Delete(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		if len(result.FailedImages) > 0 {
			return c.JSON(fiber.Map{
				"message":       "marker deleted, some images could not be removed",
				"failed_images": result.FailedImages,
			})
		}
		return c.JSON(fiber.Map{"message": "marker deleted"})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		m, err := svc.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(m)
	})
}

func boundingBoxFromQuery(c *fiber.Ctx) (BoundingBox, error) {
	var box BoundingBox
	for _, bound := range []struct {
		name string
		dst  *float64
	}{
		{"latMin", &box.LatMin},
		{"latMax", &box.LatMax},
		{"lngMin", &box.LngMin},
		{"lngMax", &box.LngMax},
	} {
		raw := c.Query(bound.name)
		if raw == "" {
			return BoundingBox{}, apperr.ValidationField(bound.name, bound.name+" required")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return BoundingBox{}, apperr.ValidationField(bound.name, "invalid "+bound.name)
		}
		*bound.dst = v
	}
	return box, nil
}

func markerIDFromBody(c *fiber.Ctx) (string, error) {
	var req struct {
		MarkerID string `json:"markerId"`
	}
	if err := c.BodyParser(&req); err != nil || req.MarkerID == "" {
		return "", apperr.Validation("marker id required")
	}
	return req.MarkerID, nil
}

func submissionFromForm(c *fiber.Ctx) (Submission, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return Submission{}, apperr.Validation("multipart form required")
	}

	lat, err := strconv.ParseFloat(formValue(form.Value, "lat"), 64)
	if err != nil {
		return Submission{}, apperr.ValidationField("lat", "invalid latitude")
	}
	lng, err := strconv.ParseFloat(formValue(form.Value, "lng"), 64)
	if err != nil {
		return Submission{}, apperr.ValidationField("lng", "invalid longitude")
	}

	sub := Submission{
		Name:    formValue(form.Value, "name"),
		Address: formValue(form.Value, "address"),
		Lat:     lat,
		Lng:     lng,
		AddedBy: localUserID(c),
		IsAdmin: localRole(c) == user.RoleAdmin,
	}

	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			return Submission{}, apperr.Upload(err)
		}
		// Closed by the multipart form teardown at request end.
		sub.Images = append(sub.Images, Upload{
			Name:        header.Filename,
			Content:     file,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	return sub, nil
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func pagination(c *fiber.Ctx, defaultSize int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize < 1 || pageSize > defaultVisiblePageSize {
		pageSize = defaultSize
	}
	return page, pageSize
}

func localUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(session.KeyUserID).(string)
	return id
}

func localRole(c *fiber.Ctx) string {
	role, _ := c.Locals(session.KeyRole).(string)
	return role
}
