package models

import "time"

type PurchaseStatus string

const (
	PurchasePaid    PurchaseStatus = "Paid"
	PurchaseUnpaid  PurchaseStatus = "Unpaid"
	PurchasePartial PurchaseStatus = "Partial"
)

// Purchase is an acquisition header. Items carry the batch identities; no
// derived stock is stored on the header.
type Purchase struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	VendorID        uint           `gorm:"index;not null" json:"vendor_id"`
	Vendor          Vendor         `json:"vendor"`
	BillNumber      string         `gorm:"size:60;not null" json:"bill_number"`
	PurchaseDate    time.Time      `json:"purchase_date"`
	OverallDiscount float64        `gorm:"default:0" json:"overall_discount"`
	TotalAmount     float64        `gorm:"default:0" json:"total_amount"`
	IsCredit        bool           `gorm:"default:false" json:"is_credit"`
	DueDate         *time.Time     `json:"due_date"`
	Status          PurchaseStatus `gorm:"size:12;default:Unpaid" json:"status"`
	Items           []PurchaseItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PurchaseItem is one received batch lot. Quantity and FreeQuantity are in
// packs; UnitValue/UnitType snapshot the product's pack spec at intake time so
// later catalog edits do not rewrite history.
type PurchaseItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PurchaseID    uint      `gorm:"index;not null" json:"purchase_id"`
	Purchase      Purchase  `json:"-"`
	ProductID     uint      `gorm:"index;not null" json:"product_id"`
	Product       Product   `json:"product"`
	BatchCode     string    `gorm:"size:60;index;not null" json:"batch_code"`
	ExpiryDate    time.Time `gorm:"type:date" json:"expiry_date"`
	Quantity      float64   `gorm:"not null" json:"quantity"`
	FreeQuantity  float64   `gorm:"default:0" json:"free_quantity"`
	PurchasePrice float64   `gorm:"not null" json:"purchase_price"`
	MRP           float64   `gorm:"column:mrp;not null" json:"mrp"`
	UnitValue     float64   `gorm:"column:unit_value" json:"unit_value"`
	UnitType      string    `gorm:"size:20" json:"unit_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// PackUnitValue mirrors Product.PackUnitValue for the snapshot value.
func (pi PurchaseItem) PackUnitValue() float64 {
	if pi.UnitValue > 0 {
		return pi.UnitValue
	}
	return 1
}

// BaseUnits is the batch's contribution to stock: paid plus bonus packs,
// converted to base units.
func (pi PurchaseItem) BaseUnits() float64 {
	return (pi.Quantity + pi.FreeQuantity) * pi.PackUnitValue()
}

// Subtotal sums the billable line totals; free quantity is not billed.
func (p Purchase) Subtotal() float64 {
	var sum float64
	for _, it := range p.Items {
		sum += it.Quantity * it.PurchasePrice
	}
	return sum
}

// GrandTotal is the subtotal minus the overall discount, floored at zero.
func (p Purchase) GrandTotal() float64 {
	total := p.Subtotal() - p.OverallDiscount
	if total < 0 {
		return 0
	}
	return total
}

// IsOverdue reports whether a credit purchase is past its due date and still
// not settled.
func (p Purchase) IsOverdue(now time.Time) bool {
	return p.IsCredit && p.DueDate != nil && now.After(*p.DueDate) && p.Status != PurchasePaid
}
