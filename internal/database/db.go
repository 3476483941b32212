package database

import (
	"personel-backend/internal/config"
	"personel-backend/internal/logger"
	"personel-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatalf("AutoMigrate hatası: %v", err)
	}

	logger.Log.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate şemayı kurar. Testlerde in-memory sqlite ile de çağrılır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.AuditLog{},
	)
}
