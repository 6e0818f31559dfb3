package controllers

import (
	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
)

type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

func CreateCustomer(c *gin.Context) {
	var in CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	customer := models.Customer{Name: in.Name, Phone: in.Phone}
	if err := config.DB.Create(&customer).Error; err != nil {
		utils.ServerError(c, "Failed to create customer", err)
		return
	}
	utils.Created(c, "Customer created", customer)
}

func GetAllCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := config.DB.Order("name").Find(&customers).Error; err != nil {
		utils.ServerError(c, "Failed to fetch customers", err)
		return
	}
	utils.OK(c, "Customers fetched", customers)
}
