package controllers

import (
	"strconv"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
)

type VendorInput struct {
	FullName     string `json:"full_name" binding:"required"`
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}

func CreateVendor(c *gin.Context) {
	var in VendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	vendor := models.Vendor{
		FullName:     in.FullName,
		BusinessName: in.BusinessName,
		PhoneNumber:  in.PhoneNumber,
		Email:        in.Email,
		Address:      in.Address,
	}
	if err := config.DB.Create(&vendor).Error; err != nil {
		utils.ServerError(c, "Failed to register vendor", err)
		return
	}
	utils.Created(c, "Vendor registered", vendor)
}

func GetAllVendors(c *gin.Context) {
	var vendors []models.Vendor
	if err := config.DB.Order("full_name").Find(&vendors).Error; err != nil {
		utils.ServerError(c, "Failed to fetch vendors", err)
		return
	}
	utils.OK(c, "Vendors fetched", vendors)
}

func GetVendorByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var vendor models.Vendor
	if err := config.DB.First(&vendor, id).Error; err != nil {
		utils.NotFound(c, "Vendor not found")
		return
	}
	utils.OK(c, "Vendor fetched", vendor)
}

func UpdateVendor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var vendor models.Vendor
	if err := config.DB.First(&vendor, id).Error; err != nil {
		utils.NotFound(c, "Vendor not found")
		return
	}

	var in VendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	updates := map[string]interface{}{
		"full_name":     in.FullName,
		"business_name": in.BusinessName,
		"phone_number":  in.PhoneNumber,
		"email":         in.Email,
		"address":       in.Address,
	}
	if err := config.DB.Model(&vendor).Updates(updates).Error; err != nil {
		utils.ServerError(c, "Failed to update vendor", err)
		return
	}
	utils.OK(c, "Vendor updated", vendor)
}

func DeleteVendor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid id", nil)
		return
	}

	var vendor models.Vendor
	if err := config.DB.First(&vendor, id).Error; err != nil {
		utils.NotFound(c, "Vendor not found")
		return
	}
	if err := config.DB.Delete(&vendor).Error; err != nil {
		utils.ServerError(c, "Failed to delete vendor", err)
		return
	}
	utils.OK(c, "Vendor deleted", nil)
}
