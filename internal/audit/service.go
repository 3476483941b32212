package audit

import (
	"encoding/json"

	"personel-backend/internal/database"
	"personel-backend/internal/logger"
	"personel-backend/internal/models"
)

type Entry struct {
	UserID    *uint
	UserName  string
	Action    models.AuditAction
	TargetID  string
	Payload   any // Sadece create/update aksiyonları için doldurulur
	IP        string
	UserAgent string
}

// Record başarılı bir mutasyondan SONRA çağrılır. Kayıt hatası isteği asla
// bozmaz; sadece loglanır (fire-and-forget).
func Record(e Entry) {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	payloadStr := "null"
	if e.Payload != nil {
		if b, err := json.Marshal(e.Payload); err == nil {
			payloadStr = string(b)
		}
	}

	entry := models.AuditLog{
		UserID:    e.UserID,
		UserName:  e.UserName,
		Action:    e.Action,
		TargetID:  e.TargetID,
		Payload:   payloadStr,
		IP:        e.IP,
		UserAgent: e.UserAgent,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		// Log hatası kritik değil, sadece log'la
		logger.Log.WithField("action", e.Action).Errorf("Audit log yazılamadı: %v", err)
	}
}
