package server

import (
	"errors"
	"log"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/auth"
	"github.com/danilwladich/2rnik/internal/captcha"
	"github.com/danilwladich/2rnik/internal/cms"
	"github.com/danilwladich/2rnik/internal/config"
	"github.com/danilwladich/2rnik/internal/follow"
	"github.com/danilwladich/2rnik/internal/imagestore"
	"github.com/danilwladich/2rnik/internal/marker"
	"github.com/danilwladich/2rnik/internal/session"
	"github.com/danilwladich/2rnik/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, images imagestore.Store, verifier captcha.Verifier) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
	}

	registerRoutes(s, images, verifier)
	return s
}

func registerRoutes(s *Server, images imagestore.Store, verifier captcha.Verifier) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var (
		userRepo   user.Repository
		markerRepo marker.Repository
		followRepo follow.Repository
	)
	if s.Cfg.Backend == config.BackendCMS {
		client := cms.New(s.Cfg.CMSURL, s.Cfg.CMSToken)
		userRepo = user.NewCMSRepository(client)
		markerRepo = marker.NewCMSRepository(client)
		followRepo = follow.NewCMSRepository(client)
	} else {
		userRepo = user.NewPostgresRepository(s.DB)
		markerRepo = marker.NewPostgresRepository(s.DB)
		followRepo = follow.NewPostgresRepository(s.DB)
	}

	sessions := session.NewStore(s.Redis)
	cookies := session.NewCookieManager(s.Cfg.CookieDomain, s.Cfg.CookieSecure)

	authSvc := auth.NewService(s.Cfg.JWTSecret, userRepo, sessions)
	authMiddleware := auth.Middleware(authSvc, sessions)
	adminMiddleware := auth.AdminOnly()

	api := s.App.Group("/api")
	auth.RegisterRoutes(api.Group("/auth"), authSvc, verifier, cookies, authMiddleware)
	user.RegisterRoutes(api.Group("/user"), user.NewService(userRepo, images, sessions), sessions, cookies, authMiddleware, adminMiddleware)
	marker.RegisterRoutes(api.Group("/marker"), marker.NewService(markerRepo, images), authMiddleware, adminMiddleware)
	follow.RegisterRoutes(api.Group("/follow"), follow.NewService(followRepo, userRepo, s.Redis), authMiddleware)
}

// errorHandler maps the error taxonomy to responses; anything unexpected is
// logged and returned as a generic 500 so internals never leak to clients.
func errorHandler(c *fiber.Ctx, err error) error {
	if ae, ok := apperr.As(err); ok {
		return c.Status(ae.Status).JSON(ae)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	log.Printf("unhandled error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}
