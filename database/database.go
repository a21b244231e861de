package database

import (
	"fmt"
	"log"
	"os"

	"trasua-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=trasua_store port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
		&models.Category{},
		&models.Product{},
		&models.Topping{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemTopping{},
		&models.Voucher{},
		&models.StoreHours{},
	)
}

func CreateDefaultAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = "admin@trasua.com"
	}
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var existingUser models.User
	result := db.Where("email = ?", adminEmail).First(&existingUser)
	if result.Error == nil {
		// Admin already exists
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Default admin created: %s", adminEmail)
	return nil
}

// CreateDefaultStoreHours seeds a full week of ordering hours if none exist,
// using the default 07:00-22:00 window.
func CreateDefaultStoreHours(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.StoreHours{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for day := 0; day < 7; day++ {
		h := models.StoreHours{
			DayOfWeek: day,
			OpenTime:  "07:00",
			CloseTime: "22:00",
		}
		if err := db.Create(&h).Error; err != nil {
			return err
		}
	}

	log.Println("Default store hours created (07:00-22:00, all week)")
	return nil
}
