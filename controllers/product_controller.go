package controllers

import (
	"errors"
	"strconv"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

type ProductInput struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand"`
	UnitValue float64 `json:"unit_value"`
	UnitType  string  `json:"unit_type"`
	Emoji     string  `json:"emoji"`
}

func CreateProduct(c *gin.Context) {
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	product := models.Product{
		Name:      in.Name,
		Category:  in.Category,
		Brand:     in.Brand,
		UnitValue: in.UnitValue,
		UnitType:  in.UnitType,
		Emoji:     in.Emoji,
	}

	if err := config.DB.Create(&product).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			utils.BadRequest(c, "Product name is already registered", nil)
			return
		}
		utils.ServerError(c, "Failed to create product", err)
		return
	}

	utils.Created(c, "Product registered", product)
}

func GetAllProducts(c *gin.Context) {
	var products []models.Product
	if err := config.DB.Order("name").Find(&products).Error; err != nil {
		utils.ServerError(c, "Failed to fetch products", err)
		return
	}
	utils.OK(c, "Products fetched", products)
}

func GetProductByID(c *gin.Context) {
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
	utils.OK(c, "Product fetched", product)
}

func UpdateProduct(c *gin.Context) {
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

	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	updates := map[string]interface{}{
		"name":       in.Name,
		"category":   in.Category,
		"brand":      in.Brand,
		"unit_value": in.UnitValue,
		"unit_type":  in.UnitType,
		"emoji":      in.Emoji,
	}
	if err := config.DB.Model(&product).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to update product", err)
		return
	}
	utils.OK(c, "Product updated", product)
}

func DeleteProduct(c *gin.Context) {
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
	if err := config.DB.Delete(&product).Error; err != nil {
		utils.ServerError(c, "Failed to delete product", err)
		return
	}
	utils.OK(c, "Product deleted", nil)
}
