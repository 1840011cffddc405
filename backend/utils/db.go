package utils

import (
	"fmt"

	"mcqbank/backend/config"
	"mcqbank/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the Postgres connection and runs migrations.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Transaction{},
		&models.PaymentRequest{},
		&models.Question{},
		&models.Exam{},
		&models.ExamResult{},
		&models.Notification{},
		&models.Collection{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
