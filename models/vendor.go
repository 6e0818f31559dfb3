package models

import "time"

type Vendor struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"size:180" json:"full_name"`
	BusinessName string    `gorm:"size:180" json:"business_name"`
	PhoneNumber  string    `gorm:"size:60" json:"phone_number"`
	Email        string    `gorm:"size:180" json:"email"`
	Address      string    `gorm:"size:255" json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName prefers the registered business name over the contact name.
func (v Vendor) DisplayName() string {
	if v.BusinessName != "" {
		return v.BusinessName
	}
	return v.FullName
}
