package auth

import (
	"fmt"
	"strings"

	"personel-backend/internal/config"
	"personel-backend/internal/database"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
)

// Middleware önce session cookie'sine, yoksa Authorization header'ındaki
// bearer token'a bakar. İkisi de yoksa 401.
func Middleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1) Session yolu (tarayıcı)
		if userID := SessionUserID(c); userID != 0 {
			user, err := loadActiveUser(userID)
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "Oturum geçersiz veya kullanıcı pasif")
			}
			setUserLocals(c, user)
			return c.Next()
		}

		// 2) Bearer token yolu (API istemcileri)
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum veya Authorization header gerekli")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		// Token geçerli olsa bile kullanıcı silinmiş/pasif olabilir
		user, err := loadActiveUser(claims.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı veya pasif")
		}

		setUserLocals(c, user)
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

func loadActiveUser(userID uint) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("kullanıcı pasif")
	}
	return &user, nil
}

func setUserLocals(c *fiber.Ctx, user *models.User) {
	c.Locals(CtxUserIDKey, user.ID)
	c.Locals(CtxUserNameKey, user.Name)
	c.Locals(CtxUserRoleKey, user.Role)
}

// ActorInfo handler'ların audit kaydı için ihtiyaç duyduğu aktör bilgisini döner.
func ActorInfo(c *fiber.Ctx) (*uint, string) {
	var id *uint
	if v, ok := c.Locals(CtxUserIDKey).(uint); ok {
		id = &v
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	return id, name
}
