package config

import (
	"os"

	"github.com/infisparks/pharma/models"

	"golang.org/x/crypto/bcrypt"
)

// SeedAccess ensures at least one admin login exists so a fresh deployment is
// reachable. Controlled by ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAccess() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var cnt int64
	DB.Model(&models.UserAccess{}).Where("email = ?", email).Count(&cnt)
	if cnt > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		Log.Errorf("failed to hash seed admin password: %v", err)
		return
	}
	if err := DB.Create(&models.UserAccess{
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}).Error; err != nil {
		Log.Errorf("failed to seed admin access: %v", err)
		return
	}
	Log.Infof("seeded admin access for %s", email)
}
