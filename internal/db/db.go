package db

import (
	"log"
	"os"

	"inkwell/internal/models"
	"inkwell/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=inkwell port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Setting{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedSettings()
	seedAdmin()
}

func seedSettings() {
	defaults := map[string]string{
		models.SettingCommentsEnabled: "true",
		models.SettingGuestComments:   "true",
	}

	for key, value := range defaults {
		var count int64
		DB.Model(&models.Setting{}).Where("key = ?", key).Count(&count)
		if count > 0 {
			continue
		}
		if err := DB.Create(&models.Setting{Key: key, Value: value}).Error; err != nil {
			log.Printf("Failed to seed setting %s: %v", key, err)
		}
	}
}

// seedAdmin creates the moderation account from env on first start.
// Without ADMIN_EMAIL/ADMIN_PASSWORD the admin surface stays unreachable.
func seedAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var count int64
	DB.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Username: "admin",
		Email:    email,
		Password: hash,
		Role:     "admin",
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin user: %v", err)
		return
	}
	log.Println("Admin user created")
}
