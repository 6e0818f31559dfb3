package models

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "Cash"
	PaymentOnline PaymentMethod = "Online"
	PaymentMixed  PaymentMethod = "Mixed"
)

// PaymentTolerance absorbs float rounding when comparing tendered amounts and
// dues against totals.
const PaymentTolerance = 0.01

// Sale is a consumption header. CustomerID is null for walk-in sales.
// TotalAmount is the grand total (subtotal minus discount) captured at
// checkout.
type Sale struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	CustomerID     *uint         `gorm:"index" json:"customer_id"`
	Customer       *Customer     `json:"customer,omitempty"`
	PaymentMethod  PaymentMethod `gorm:"size:10;not null" json:"payment_method"`
	CashAmount     float64       `gorm:"default:0" json:"cash_amount"`
	OnlineAmount   float64       `gorm:"default:0" json:"online_amount"`
	DiscountAmount float64       `gorm:"default:0" json:"discount_amount"`
	TotalAmount    float64       `gorm:"default:0" json:"total_amount"`
	DoctorName     string        `gorm:"size:180" json:"doctor_name"`
	Notes          string        `gorm:"size:255" json:"notes"`
	SaleDate       time.Time     `json:"sale_date"`
	Items          []SaleItem    `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SaleItem consumes from one (product, batch) lot. Quantity is in packs,
// UnitPrice is per pack.
type SaleItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SaleID    uint      `gorm:"index;not null" json:"sale_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Product   Product   `json:"product"`
	BatchCode string    `gorm:"size:60;index;not null" json:"batch_code"`
	Quantity  float64   `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Subtotal  float64   `gorm:"not null" json:"subtotal"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoiceNumber formats the ledger-facing invoice reference.
func (s Sale) InvoiceNumber() string {
	return fmt.Sprintf("INV-%05d", s.ID)
}

// AmountPaid is the sum of tendered amounts across both channels.
func (s Sale) AmountPaid() float64 {
	return s.CashAmount + s.OnlineAmount
}

// AmountDue is the outstanding balance, never negative.
func (s Sale) AmountDue() float64 {
	due := s.TotalAmount - s.AmountPaid()
	if due < 0 {
		return 0
	}
	return due
}

// PaymentStatus derives Paid/Partial/Unpaid from the amounts, with the usual
// rounding tolerance on "fully paid".
func (s Sale) PaymentStatus() string {
	if s.AmountDue() <= PaymentTolerance {
		return "Paid"
	}
	if s.AmountPaid() > 0 {
		return "Partial"
	}
	return "Unpaid"
}

// SubtotalBeforeDiscount reconstructs the pre-discount figure from the stored
// grand total.
func (s Sale) SubtotalBeforeDiscount() float64 {
	return s.TotalAmount + s.DiscountAmount
}

// Profit computes the sale's margin: per item (unit price - batch purchase
// price) x quantity, minus the header discount. purchasePrice resolves the
// acquisition cost for a (product, batch) pair; unresolvable batches
// contribute their full revenue.
func (s Sale) Profit(purchasePrice func(productID uint, batchCode string) float64) float64 {
	var profit float64
	for _, it := range s.Items {
		profit += (it.UnitPrice - purchasePrice(it.ProductID, it.BatchCode)) * it.Quantity
	}
	return profit - s.DiscountAmount
}
