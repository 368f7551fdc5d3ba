package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var baseCategories = []models.Category{
	{Name: "General", Description: "Uncategorised items"},
	{Name: "Beverages", Description: "Drinks"},
	{Name: "Groceries", Description: "Food and household goods"},
}

// Seed inserts baseline categories and, when a password is configured, the
// initial admin account. Running it twice is a no-op.
func Seed(gdb *gorm.DB, app config.AppConfig) error {
	for _, c := range baseCategories {
		var existing models.Category
		err := gdb.Where("name = ?", c.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := gdb.Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	if app.AdminPassword == "" {
		return nil
	}
	var admin models.User
	err := gdb.Where("username = ?", app.AdminUsername).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(app.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	admin = models.User{Username: app.AdminUsername, PasswordHash: string(hash), Role: models.RoleAdmin}
	if err := gdb.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("created admin user %q", admin.Username)
	return nil
}
