package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/models"
	"github.com/opencallhq/opencall/pkg/crypto"
)

// MigratedTables lists every table AutoMigrate manages, in creation order.
// The schema-update diagnostic reports this list back to the caller.
var MigratedTables = []string{
	"users",
	"terms",
	"submissions",
	"attachments",
	"conversion_jobs",
	"settings",
	"audit_logs",
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Term{},
		&models.Submission{},
		&models.Attachment{},
		&models.ConversionJob{},
		&models.Setting{},
		&models.AuditLog{},
	)
}

// AdminSeed describes the administrator account created on first start.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedAdminUser creates the administrator account when no user exists yet.
// An already-populated users table is left untouched.
func SeedAdminUser(db *gorm.DB, seed AdminSeed) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(seed.Username)
	if username == "" {
		username = "admin"
	}
	if strings.TrimSpace(seed.Password) == "" {
		return errors.New("admin seed: password is required")
	}

	hashed, err := crypto.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:    username,
		Email:       strings.TrimSpace(seed.Email),
		DisplayName: "Administrator",
		Password:    hashed,
	}
	return db.Create(&admin).Error
}
