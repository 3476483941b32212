package employee

import (
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/departments
// İstemciler select kutularını bu listeden kurar.
func ListDepartmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"departments": models.Departments(),
		})
	}
}
