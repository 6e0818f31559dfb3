package main

import (
	"os"

	"github.com/infisparks/pharma/config"
	"github.com/infisparks/pharma/models"
	"github.com/infisparks/pharma/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv()
	config.ConnectDB()

	err := config.DB.AutoMigrate(
		&models.UserAccess{},
		&models.Product{},
		&models.Vendor{},
		&models.Customer{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.Sale{},
		&models.SaleItem{},
	)
	if err != nil {
		config.Log.Fatalf("migration failed: %v", err)
	}
	config.SeedAccess()

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	config.Log.Infof("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		config.Log.Fatalf("server stopped: %v", err)
	}
}
