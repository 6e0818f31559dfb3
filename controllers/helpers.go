package controllers

import (
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/stock"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadProjection pulls both ledgers and the catalog and folds them into a
// fresh availability projection. excludeSaleID > 0 skips that sale's
// consumption (sale edit flow).
func loadProjection(db *gorm.DB, excludeSaleID uint) (*stock.Projection, []models.Product, error) {
	var purchaseItems []models.PurchaseItem
	if err := db.Preload("Purchase.Vendor").Find(&purchaseItems).Error; err != nil {
		return nil, nil, err
	}
	var saleItems []models.SaleItem
	if err := db.Find(&saleItems).Error; err != nil {
		return nil, nil, err
	}
	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		return nil, nil, err
	}
	return stock.Compute(purchaseItems, saleItems, products, excludeSaleID), products, nil
}

// lockForUpdate takes row locks where the dialect supports them; sqlite (used
// by the test suite) serializes writes on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func productByID(products []models.Product, id uint) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}
