package admin

import (
	"errors"
	"strings"

	"personel-backend/internal/audit"
	"personel-backend/internal/auth"
	"personel-backend/internal/database"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // "user" veya "admin"
}

type SetUserActiveRequest struct {
	Active bool `json:"active"`
}

// ----------------------------------------
// KULLANICI YÖNETİMİ (sadece admin)
// ----------------------------------------

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("created_at DESC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}

		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, UserResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				Active:    u.Active,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}

// POST /api/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		role := models.UserRole(body.Role)
		if role != models.RoleUser && role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusBadRequest, "Rol 'user' veya 'admin' olmalı")
		}

		// Email kontrolü
		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         role,
			Active:       true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			// Ön kontrol ile insert arasında aynı email'le yarışan bir istek
			// unique constraint'e takılır; generic 500 yerine aynı mesaj döner
			if isUniqueViolation(err) {
				return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		actorID, actorName := auth.ActorInfo(c)
		audit.Record(audit.Entry{
			UserID:   actorID,
			UserName: actorName,
			Action:   models.AuditActionCreateUser,
			Payload: fiber.Map{
				"name": user.Name, "email": user.Email, "role": user.Role,
			},
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		})

		// NOT: Şifre sadece oluşturma sırasında bir kez döndürülür
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"password": body.Password, // Sadece oluşturma sırasında (bir kez)
		})
	}
}

// PUT /api/users/:id/active
func SetUserActiveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		var body SetUserActiveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		// Admin kendini pasifleştiremesin
		if actorID, _ := auth.ActorInfo(c); actorID != nil && *actorID == user.ID && !body.Active {
			return fiber.NewError(fiber.StatusBadRequest, "Kendi hesabını pasifleştiremezsin")
		}

		user.Active = body.Active
		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}

		actorID, actorName := auth.ActorInfo(c)
		audit.Record(audit.Entry{
			UserID:    actorID,
			UserName:  actorName,
			Action:    models.AuditActionUpdateUser,
			Payload:   fiber.Map{"user_id": user.ID, "active": user.Active},
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		})

		return c.JSON(UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      string(user.Role),
			Active:    user.Active,
			CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt: user.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// isUniqueViolation store'un unique constraint hatasını tanır. Postgres'te
// pgconn hata kodu, testlerdeki sqlite sürücüsünde mesaj içeriği kullanılır.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
