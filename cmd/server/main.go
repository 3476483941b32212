package main

import (
	"fmt"
	"strings"
	"time"

	"personel-backend/internal/admin"
	"personel-backend/internal/audit"
	"personel-backend/internal/auth"
	"personel-backend/internal/config"
	"personel-backend/internal/database"
	"personel-backend/internal/employee"
	"personel-backend/internal/logger"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg)
	database.Init(cfg)
	auth.InitSessionStore()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"message": e.Message,
				})
			}
			logger.Log.Errorf("Beklenmeyen hata: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true, // session cookie için
	}))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format("2006-01-02 15:04:05"),
		})
	})

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.Middleware(cfg))

	protected.Post("/auth/logout", auth.LogoutHandler())
	protected.Get("/auth/me", auth.MeHandler())

	protected.Get("/departments", employee.ListDepartmentsHandler())

	// Çalışan okuma (auth olan herkes)
	protected.Get("/employees", employee.ListHandler())
	protected.Get("/employees/stats", employee.StatsHandler())
	protected.Get("/employees/:id", employee.GetHandler())

	// Mutasyonlar: admin + aktör başına rate limit
	mutating := protected.Group("")
	mutating.Use(auth.RequireRole(models.RoleAdmin))
	mutating.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
				return fmt.Sprintf("user:%d", uid)
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Çok fazla istek, biraz sonra tekrar dene")
		},
	}))

	mutating.Post("/employees", employee.CreateHandler())
	mutating.Put("/employees/:id", employee.UpdateHandler())
	mutating.Delete("/employees/:id", employee.DeleteHandler())

	// Kullanıcı yönetimi (admin)
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	mutating.Post("/users", admin.CreateUserHandler())
	mutating.Put("/users/:id/active", admin.SetUserActiveHandler())

	logger.Log.Infof("Server çalışıyor port: %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Log.Fatal(err)
	}
}
