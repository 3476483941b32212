package audit

import (
	"fmt"

	"personel-backend/internal/database"
	"personel-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID        uint               `json:"id"`
	CreatedAt string             `json:"created_at"`
	UserID    *uint              `json:"user_id"`
	UserName  string             `json:"user_name"`
	Action    models.AuditAction `json:"action"`
	TargetID  string             `json:"target_id"`
	Payload   string             `json:"payload"`
	IP        string             `json:"ip"`
	UserAgent string             `json:"user_agent"`
}

// GET /api/audit-logs?action=CREATE_EMPLOYEE&user_id=1&target_id=EMP0001
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		// Aksiyon filtresi
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
		}

		// User ID filtresi
		if userIDStr := c.Query("user_id"); userIDStr != "" {
			var uid uint
			if _, err := fmt.Sscan(userIDStr, &uid); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}

		// Hedef kayıt filtresi
		if targetID := c.Query("target_id"); targetID != "" {
			dbq = dbq.Where("target_id = ?", targetID)
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(200).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:        log.ID,
				CreatedAt: log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:    log.UserID,
				UserName:  log.UserName,
				Action:    log.Action,
				TargetID:  log.TargetID,
				Payload:   log.Payload,
				IP:        log.IP,
				UserAgent: log.UserAgent,
			})
		}

		return c.JSON(resp)
	}
}
