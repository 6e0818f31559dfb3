package stock

import (
	"errors"
	"fmt"
	"time"

	"github.com/infisparks/pharma/models"
)

var (
	ErrNoStock              = errors.New("no batch with available stock")
	ErrBatchInCart          = errors.New("batch already in cart")
	ErrNoFullPack           = errors.New("available stock is below one full pack")
	ErrQuantityExceedsBatch = errors.New("quantity exceeds batch availability")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCustomerRequired     = errors.New("customer name is required")
	ErrInsufficientPayment  = errors.New("payment is insufficient")
	ErrLineNotFound         = errors.New("cart line not found")
)

// Line is one cart entry, bound to a specific product batch. MaxQty is the
// batch's available packs captured when the line was created; quantity edits
// are validated against it.
type Line struct {
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	BatchCode   string    `json:"batch_code"`
	ExpiryDate  time.Time `json:"expiry_date"`
	UnitPrice   float64   `json:"unit_price"`
	Qty         float64   `json:"qty"`
	MaxQty      float64   `json:"max_qty"`
}

// LineTotal is the line's contribution to the subtotal.
func (l *Line) LineTotal() float64 { return l.UnitPrice * l.Qty }

// Cart is the sale composer's session state: an explicit object owned by the
// request handling it, never ambient. All availability checks go through the
// projection the cart was built with.
type Cart struct {
	proj *Projection

	Lines         []*Line
	Discount      float64
	PaymentMethod models.PaymentMethod
	CashAmount    float64
	OnlineAmount  float64
	CustomerName  string
	CustomerPhone string
	DoctorName    string
}

// NewCart builds an empty cart over a stock projection. For sale edits the
// projection must have been computed with the edited sale excluded, otherwise
// the sale's own prior consumption would count against it.
func NewCart(proj *Projection) *Cart {
	return &Cart{proj: proj}
}

// AddProduct adds the earliest-expiring batch of the product that still has at
// least one full pack (FEFO auto-pick). It fails when the product has no
// stocked batch, when that batch is already in the cart, or when its
// availability rounds down to zero packs.
func (c *Cart) AddProduct(p models.Product) (*Line, error) {
	batches := c.proj.PickForAutoAdd(p.ID)
	if len(batches) == 0 {
		return nil, ErrNoStock
	}
	primary := batches[0]
	if c.findLine(p.ID, primary.BatchCode) != nil {
		return nil, ErrBatchInCart
	}
	if primary.AvailablePacks < 1 {
		return nil, ErrNoFullPack
	}
	return c.push(p.Name, primary), nil
}

// AddBatch adds a specific batch of a product, for callers that already chose
// a lot. Same rejection rules as AddProduct.
func (c *Cart) AddBatch(p models.Product, batchCode string) (*Line, error) {
	b := c.proj.Batch(p.ID, batchCode)
	if b == nil {
		return nil, ErrNoStock
	}
	if c.findLine(p.ID, batchCode) != nil {
		return nil, ErrBatchInCart
	}
	if b.AvailablePacks < 1 {
		return nil, ErrNoFullPack
	}
	return c.push(p.Name, b), nil
}

func (c *Cart) push(name string, b *BatchStock) *Line {
	line := &Line{
		ProductID:   b.ProductID,
		ProductName: name,
		BatchCode:   b.BatchCode,
		ExpiryDate:  b.ExpiryDate,
		UnitPrice:   b.MRP,
		Qty:         1,
		MaxQty:      b.AvailablePacks,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// SetQuantity changes a line's pack count. Requests above the batch capacity
// are rejected and leave the quantity unchanged; the floor is one pack.
// Removing a line is an explicit Remove, not quantity zero.
func (c *Cart) SetQuantity(line *Line, qty float64) error {
	if qty > line.MaxQty {
		return fmt.Errorf("%w: only %g packs available in batch %s", ErrQuantityExceedsBatch, line.MaxQty, line.BatchCode)
	}
	if qty < 1 {
		qty = 1
	}
	line.Qty = qty
	return nil
}

// SwitchBatch rebinds a line to another batch of the same product, refreshing
// its price and capacity and clamping the quantity down if the new batch
// cannot cover it.
func (c *Cart) SwitchBatch(line *Line, batchCode string) error {
	b := c.proj.Batch(line.ProductID, batchCode)
	if b == nil {
		return ErrNoStock
	}
	if other := c.findLine(line.ProductID, batchCode); other != nil && other != line {
		return ErrBatchInCart
	}
	if b.AvailablePacks < 1 {
		return ErrNoFullPack
	}
	line.BatchCode = b.BatchCode
	line.ExpiryDate = b.ExpiryDate
	line.UnitPrice = b.MRP
	line.MaxQty = b.AvailablePacks
	if line.Qty > line.MaxQty {
		line.Qty = line.MaxQty
	}
	return nil
}

// Remove drops a line from the cart.
func (c *Cart) Remove(line *Line) error {
	for i, l := range c.Lines {
		if l == line {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) findLine(productID uint, batchCode string) *Line {
	for _, l := range c.Lines {
		if l.ProductID == productID && l.BatchCode == batchCode {
			return l
		}
	}
	return nil
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.Lines {
		sum += l.LineTotal()
	}
	return sum
}

// GrandTotal is subtotal minus the overall discount, floored at zero.
func (c *Cart) GrandTotal() float64 {
	total := c.Subtotal() - c.Discount
	if total < 0 {
		return 0
	}
	return total
}

// Tendered is the amount offered for the selected payment method: the cash
// channel, the online channel, or both for mixed payments.
func (c *Cart) Tendered() float64 {
	switch c.PaymentMethod {
	case models.PaymentMixed:
		return c.CashAmount + c.OnlineAmount
	case models.PaymentOnline:
		return c.OnlineAmount
	default:
		return c.CashAmount
	}
}

// Balance is tendered minus the grand total; negative means underpaid.
func (c *Cart) Balance() float64 {
	return c.Tendered() - c.GrandTotal()
}

// Validate runs the checkout preconditions: non-empty cart, a customer
// display name, and payment covering the grand total within the rounding
// tolerance.
func (c *Cart) Validate() error {
	if len(c.Lines) == 0 {
		return ErrEmptyCart
	}
	if c.CustomerName == "" {
		return ErrCustomerRequired
	}
	if c.GrandTotal() > 0 && c.Balance() < -models.PaymentTolerance {
		return ErrInsufficientPayment
	}
	return nil
}
