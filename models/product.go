package models

import "time"

// Product is a catalog entry. UnitValue is the number of base units (mg, ml,
// pieces) that make up one sellable pack; anything <= 0 is treated as 1 by the
// stock projector.
//
// CurrentStock is a denormalized base-unit counter maintained only by the
// purchase entry flow (create/edit/delete reconciliation). The sale terminal
// never reads it; availability is always derived from the ledgers.
type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:180;uniqueIndex;not null" json:"name"`
	Category     string    `gorm:"size:120" json:"category"`
	Brand        string    `gorm:"size:120" json:"brand"`
	UnitValue    float64   `gorm:"column:unit_value" json:"unit_value"`
	UnitType     string    `gorm:"size:20" json:"unit_type"`
	Emoji        string    `gorm:"size:8" json:"emoji"`
	CurrentStock float64   `gorm:"column:current_stock;default:0" json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PackUnitValue returns the divisor to use for pack conversion.
func (p Product) PackUnitValue() float64 {
	if p.UnitValue > 0 {
		return p.UnitValue
	}
	return 1
}
