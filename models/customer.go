package models

import "time"

// Customer rows are created implicitly at sale time when no existing match is
// chosen; a sale with a null customer reference is a walk-in.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:180;not null" json:"name"`
	Phone     string    `gorm:"size:60" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
