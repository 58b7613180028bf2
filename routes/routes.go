package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"treewatch/config"
	controller "treewatch/controllers"
	"treewatch/metrics"
	"treewatch/middleware"
	"treewatch/models"
	"treewatch/storage"
)

var reviewerRoles = []string{models.RoleSupervisor, models.RoleAdmin}

func SetupTreeRoutes(api fiber.Router, store *storage.Storage, cfg *config.Config, limiterStorage fiber.Storage) {
	trees := controller.NewTreeController(store, cfg)
	enforce := cfg.AuthEnforce

	api.Get("/trees", trees.GetTrees)
	// fixed paths must be registered before /trees/:id
	api.Get("/trees/pending", middleware.RequireRole(enforce, reviewerRoles...), trees.GetPendingTrees)
	api.Get("/trees/stats/overview", trees.GetStats)
	api.Get("/trees/:id", trees.GetTree)
	api.Post("/trees",
		middleware.RequireSession(enforce),
		middleware.RateLimiter(cfg.RateLimitSubmit, time.Minute, limiterStorage),
		trees.CreateTree,
	)
	api.Patch("/trees/:id/review", middleware.RequireRole(enforce, reviewerRoles...), trees.ReviewTree)
	api.Get("/users/:userId/trees", trees.GetUserTrees)
}

func SetupBadgeRoutes(api fiber.Router, store *storage.Storage, cfg *config.Config) {
	badges := controller.NewBadgeController(store)
	admin := middleware.RequireRole(cfg.AuthEnforce, models.RoleAdmin)

	api.Get("/badges", badges.GetBadges)
	api.Post("/badges", admin, badges.CreateBadge)
	api.Get("/users/:userId/badges", badges.GetUserBadges)
	api.Post("/users/:userId/badges/:badgeId", admin, badges.AwardBadge)
	api.Post("/admin/award-education-badge/:userId", admin, badges.AwardEducationBadge)
}

func SetupAuthRoutes(api fiber.Router, store *storage.Storage, cfg *config.Config, limiterStorage fiber.Storage) {
	auth := controller.NewAuthController(store, cfg)
	users := controller.NewUserController(store)
	admin := middleware.RequireRole(cfg.AuthEnforce, models.RoleAdmin)

	api.Post("/login", middleware.RateLimiter(cfg.RateLimitSubmit, time.Minute, limiterStorage), auth.Login)
	api.Get("/logout", auth.Logout)
	api.Get("/auth/user", auth.GetAuthUser)

	api.Post("/admin/users", admin, users.CreateUser)
	api.Get("/admin/users", admin, users.GetUsers)
	api.Patch("/admin/users/:userId/role", admin, users.UpdateUserRole)
}

func SetupSpeciesRoutes(api fiber.Router, store *storage.Storage) {
	species := controller.NewSpeciesController(store)

	api.Get("/tree-species", species.GetSpecies)
	api.Get("/tree-species/:name", species.GetSpeciesByName)
}

func SetupRoutes(app *fiber.App, store *storage.Storage, cfg *config.Config) {
	limiterStorage := middleware.NewRateLimitStorage(cfg.Redis)

	app.Use(middleware.Metrics())

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := store.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api", middleware.Session(store))
	SetupTreeRoutes(api, store, cfg, limiterStorage)
	SetupBadgeRoutes(api, store, cfg)
	SetupAuthRoutes(api, store, cfg, limiterStorage)
	SetupSpeciesRoutes(api, store)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	logrus.WithField("component", "routes").Info("Routes initialized")
}
