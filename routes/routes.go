package routes

import (
	"github.com/infisparks/pharma/controllers"
	"github.com/infisparks/pharma/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the API. Catalog and purchase mutations are admin-only;
// the sale terminal and every read is open to any signed-in user.
func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/auth/login", controllers.Login)

	auth := api.Group("/")
	auth.Use(middlewares.Auth())
	{
		auth.GET("/products", controllers.GetAllProducts)
		auth.GET("/products/:id", controllers.GetProductByID)
		auth.GET("/products/:id/batches", controllers.GetProductBatches)

		auth.GET("/vendors", controllers.GetAllVendors)
		auth.GET("/vendors/:id", controllers.GetVendorByID)

		auth.GET("/customers", controllers.GetAllCustomers)
		auth.POST("/customers", controllers.CreateCustomer)

		auth.GET("/stock", controllers.GetStock)
		auth.GET("/stock/:id", controllers.GetProductBatches)

		auth.GET("/purchases", controllers.GetAllPurchases)
		auth.GET("/purchases/:id", controllers.GetPurchaseByID)

		auth.GET("/sales", controllers.GetAllSales)
		auth.GET("/sales/:id", controllers.GetSaleByID)
		auth.POST("/sales", controllers.CreateSale)
		auth.PUT("/sales/:id", controllers.UpdateSale)
		auth.DELETE("/sales/:id", controllers.DeleteSale)
	}

	admin := api.Group("/")
	admin.Use(middlewares.Auth(), middlewares.AdminOnly())
	{
		admin.POST("/products", controllers.CreateProduct)
		admin.PUT("/products/:id", controllers.UpdateProduct)
		admin.DELETE("/products/:id", controllers.DeleteProduct)

		admin.POST("/vendors", controllers.CreateVendor)
		admin.PUT("/vendors/:id", controllers.UpdateVendor)
		admin.DELETE("/vendors/:id", controllers.DeleteVendor)

		admin.POST("/purchases", controllers.CreatePurchase)
		admin.PUT("/purchases/:id", controllers.UpdatePurchase)
		admin.DELETE("/purchases/:id", controllers.DeletePurchase)
		admin.PUT("/purchases/:id/status", controllers.UpdatePurchaseStatus)
		admin.PUT("/purchases/:id/discount", controllers.UpdatePurchaseDiscount)
	}
}
