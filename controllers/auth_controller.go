package controllers

import (
	"net/http"
	"time"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequest(c, "Invalid payload", err)
		return
	}

	var user models.UserAccess
	if err := config.DB.Where("email = ?", in.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unknown email or password"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unknown email or password"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.IsAdmin, 24*time.Hour)
	if err != nil {
		utils.ServerError(c, "Failed to issue token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"token":    token,
		"is_admin": user.IsAdmin,
	})
}
