package models

import "time"

// UserAccess backs the login and the admin gate. Role logic beyond the
// is_admin flag lives outside this service.
type UserAccess struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:180;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserAccess) TableName() string { return "user_access" }
