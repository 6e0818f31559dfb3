package controllers

import (
	"strconv"
	"strings"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/stock"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
)

// StockRow is one product in the inventory table: the aggregate summary plus
// its lots in FEFO order.
type StockRow struct {
	Product        models.Product     `json:"product"`
	AvailableQty   float64            `json:"available_qty"`
	AvailablePacks float64            `json:"available_packs"`
	Batches        []*stock.BatchStock `json:"batches"`
}

// GetStock returns the derived inventory table. Products with nothing
// available are omitted; pass ?search= to filter by name, category or brand.
func GetStock(c *gin.Context) {
	proj, products, err := loadProjection(config.DB, 0)
	if err != nil {
		utils.ServerError(c, "Failed to compute stock", err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	rows := make([]StockRow, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		batches := proj.PickForAutoAdd(p.ID)
		if len(batches) == 0 {
			continue
		}
		summary := proj.Summary(p.ID)
		rows = append(rows, StockRow{
			Product:        p,
			AvailableQty:   summary.AvailableQty,
			AvailablePacks: summary.AvailablePacks,
			Batches:        batches,
		})
	}
	utils.OK(c, "Stock computed", rows)
}

// GetProductBatches returns one product's availability both ways the terminal
// consumes it: the FEFO auto-pick order and the descending manual-switch order.
func GetProductBatches(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var product models.Product
	if err := config.DB.First(&product, id).Error; err != nil {
		utils.NotFound(c, "Product not found")
		return
	}

	// An edit screen passes ?exclude_sale_id= so the edited sale's own
	// consumption does not count against it.
	var excludeSaleID uint
	if raw := c.Query("exclude_sale_id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			utils.BadRequest(c, "Invalid exclude_sale_id", nil)
			return
		}
		excludeSaleID = uint(v)
	}

	proj, _, err := loadProjection(config.DB, excludeSaleID)
	if err != nil {
		utils.ServerError(c, "Failed to compute stock", err)
		return
	}

	summary := proj.Summary(product.ID)
	utils.OK(c, "Batches computed", gin.H{
		"product":         product,
		"available_qty":   summary.AvailableQty,
		"available_packs": summary.AvailablePacks,
		"auto_pick":       proj.PickForAutoAdd(product.ID),
		"manual_switch":   proj.ListForManualSwitch(product.ID),
	})
}
