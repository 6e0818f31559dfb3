// Package stock derives batch availability from the purchase and sale ledgers.
//
// There is no stored running balance behind the sale terminal: every
// projection is a fresh fold of purchase receipts minus sale consumption,
// keyed by (product, batch). That trades recomputation cost for
// consistency-by-construction at single-shop data volumes.
package stock

import (
	"sort"
	"time"

	"github.com/infisparks/pharma/models"
)

// BatchKey identifies a stock lot. Batch codes are scoped per product.
type BatchKey struct {
	ProductID uint
	BatchCode string
}

// BatchStock is the derived state of one lot. Quantities are in base units;
// AvailablePacks is the floor division by the product's pack unit value.
type BatchStock struct {
	ProductID      uint      `json:"product_id"`
	BatchCode      string    `json:"batch_code"`
	ExpiryDate     time.Time `json:"expiry_date"`
	PurchasedQty   float64   `json:"purchased_qty"`
	SoldQty        float64   `json:"sold_qty"`
	AvailableQty   float64   `json:"available_qty"`
	AvailablePacks float64   `json:"available_packs"`
	MRP            float64   `json:"mrp"`
	PurchasePrice  float64   `json:"purchase_price"`
	VendorName     string    `json:"vendor_name"`
	PurchaseDate   time.Time `json:"purchase_date"`
}

// Projection is the result of one Compute run. It is a snapshot: it does not
// observe ledger writes made after it was built.
type Projection struct {
	batches   map[BatchKey]*BatchStock
	unitValue map[uint]float64
}

// Compute folds the two ledgers into per-batch availability.
//
// Purchase lines accumulate (quantity + free) x the line's own unit-value
// snapshot; the first line seen for a batch supplies its expiry, MRP, cost and
// vendor metadata. Sale lines subtract quantity x the product's current
// unit value, the same asymmetry the terminal has always used. Lines
// belonging to excludeSaleID are skipped, so that editing that sale sees stock
// as if its own prior consumption did not exist; pass 0 outside edit flows.
//
// Batches that end up with no positive availability are dropped from the
// projection entirely.
func Compute(purchaseItems []models.PurchaseItem, saleItems []models.SaleItem, products []models.Product, excludeSaleID uint) *Projection {
	p := &Projection{
		batches:   make(map[BatchKey]*BatchStock),
		unitValue: make(map[uint]float64, len(products)),
	}
	for _, prod := range products {
		p.unitValue[prod.ID] = prod.PackUnitValue()
	}

	for _, pi := range purchaseItems {
		key := BatchKey{ProductID: pi.ProductID, BatchCode: pi.BatchCode}
		b, ok := p.batches[key]
		if !ok {
			b = &BatchStock{
				ProductID:     pi.ProductID,
				BatchCode:     pi.BatchCode,
				ExpiryDate:    pi.ExpiryDate,
				MRP:           pi.MRP,
				PurchasePrice: pi.PurchasePrice,
				VendorName:    pi.Purchase.Vendor.DisplayName(),
				PurchaseDate:  pi.Purchase.PurchaseDate,
			}
			p.batches[key] = b
		}
		b.PurchasedQty += pi.BaseUnits()
	}

	for _, si := range saleItems {
		if excludeSaleID != 0 && si.SaleID == excludeSaleID {
			continue
		}
		key := BatchKey{ProductID: si.ProductID, BatchCode: si.BatchCode}
		b, ok := p.batches[key]
		if !ok {
			// Sale against an unknown batch still counts as consumption so
			// the ledgers stay additive.
			b = &BatchStock{ProductID: si.ProductID, BatchCode: si.BatchCode}
			p.batches[key] = b
		}
		b.SoldQty += si.Quantity * p.productUnitValue(si.ProductID)
	}

	for key, b := range p.batches {
		b.AvailableQty = b.PurchasedQty - b.SoldQty
		if b.AvailableQty <= 0 {
			delete(p.batches, key)
			continue
		}
		b.AvailablePacks = packsOf(b.AvailableQty, p.productUnitValue(b.ProductID))
	}
	return p
}

func (p *Projection) productUnitValue(productID uint) float64 {
	if uv, ok := p.unitValue[productID]; ok {
		return uv
	}
	return 1
}

func packsOf(baseUnits, unitValue float64) float64 {
	if unitValue <= 0 {
		unitValue = 1
	}
	packs := float64(int64(baseUnits / unitValue))
	if packs < 0 {
		return 0
	}
	return packs
}

// Batch looks up one lot; nil when it has no available stock.
func (p *Projection) Batch(productID uint, batchCode string) *BatchStock {
	return p.batches[BatchKey{ProductID: productID, BatchCode: batchCode}]
}

// Batches returns every lot with available stock, in no particular order.
func (p *Projection) Batches() []*BatchStock {
	out := make([]*BatchStock, 0, len(p.batches))
	for _, b := range p.batches {
		out = append(out, b)
	}
	return out
}

// PickForAutoAdd lists a product's lots earliest expiry first (FEFO): the
// front of the slice is the lot the terminal sells from by default. Lots with
// an unknown expiry are never preferred.
func (p *Projection) PickForAutoAdd(productID uint) []*BatchStock {
	out := p.productBatches(productID)
	sort.SliceStable(out, func(i, j int) bool {
		return expiryBefore(out[i].ExpiryDate, out[j].ExpiryDate)
	})
	return out
}

// ListForManualSwitch lists a product's lots latest expiry first, the order
// the batch-switcher UI presents. Deliberately the reverse of PickForAutoAdd;
// the two views have always disagreed and both orderings are preserved.
func (p *Projection) ListForManualSwitch(productID uint) []*BatchStock {
	out := p.productBatches(productID)
	sort.SliceStable(out, func(i, j int) bool {
		return expiryBefore(out[j].ExpiryDate, out[i].ExpiryDate)
	})
	return out
}

func (p *Projection) productBatches(productID uint) []*BatchStock {
	var out []*BatchStock
	for _, b := range p.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out
}

// expiryBefore orders known dates ascending and pushes unknown (zero) dates
// to the end.
func expiryBefore(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}

// ProductSummary aggregates a product's availability across its lots.
type ProductSummary struct {
	ProductID      uint    `json:"product_id"`
	AvailableQty   float64 `json:"available_qty"`
	AvailablePacks float64 `json:"available_packs"`
}

// Summary totals availability for one product. Packs are floored on the
// total, not summed per batch, matching the terminal's search listing.
func (p *Projection) Summary(productID uint) ProductSummary {
	s := ProductSummary{ProductID: productID}
	for _, b := range p.batches {
		if b.ProductID == productID {
			s.AvailableQty += b.AvailableQty
		}
	}
	s.AvailablePacks = packsOf(s.AvailableQty, p.productUnitValue(productID))
	return s
}
