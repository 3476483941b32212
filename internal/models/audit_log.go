package models

import "time"

type AuditAction string

const (
	AuditActionCreateEmployee AuditAction = "CREATE_EMPLOYEE"
	AuditActionUpdateEmployee AuditAction = "UPDATE_EMPLOYEE"
	AuditActionDeleteEmployee AuditAction = "DELETE_EMPLOYEE"
	AuditActionCreateUser     AuditAction = "CREATE_USER"
	AuditActionUpdateUser     AuditAction = "UPDATE_USER"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Hangi kullanıcı? (anonim istekler için nil)
	UserID   *uint  `gorm:"index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // Kullanıcı adı (denormalize)

	// İşlem tipi: CREATE_EMPLOYEE, UPDATE_EMPLOYEE, ...
	Action AuditAction `gorm:"size:30;index" json:"action"`

	// Hedef kayıt (ör: "EMP0012"), yoksa boş
	TargetID string `gorm:"size:20;index" json:"target_id"`

	// İstek gövdesi (JSON) - sadece create/update için
	Payload string `gorm:"type:jsonb" json:"payload"`

	// İstek kaynağı
	IP        string `gorm:"size:45" json:"ip"`
	UserAgent string `gorm:"size:255" json:"user_agent"`
}
