package routes

import (
	"time"

	"trasua-backend/firebase"
	"trasua-backend/handlers"
	"trasua-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, storage firebase.StorageClient) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db, Storage: storage}
	toppingHandler := &handlers.ToppingHandler{DB: db, Storage: storage}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	voucherHandler := &handlers.VoucherHandler{DB: db}
	statsHandler := &handlers.StatsHandler{DB: db}
	hoursHandler := &handlers.HoursHandler{DB: db}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", authLimiter.Middleware(), authHandler.Register)
		api.POST("/auth/login", authLimiter.Middleware(), authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/forgot-password", authLimiter.Middleware(), authHandler.ForgotPassword)
		api.POST("/auth/reset-password", authLimiter.Middleware(), authHandler.ResetPassword)

		// Catalog routes, polled by the storefront
		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.GET("/toppings", toppingHandler.GetToppings)
		api.GET("/toppings/:id", toppingHandler.GetTopping)
		api.GET("/categories", categoryHandler.GetCategories)
		api.GET("/categories/:id", categoryHandler.GetCategory)
		api.GET("/store-hours", hoursHandler.GetStoreHours)

		api.POST("/vouchers/verify", voucherHandler.VerifyVoucher)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)

		// Cart routes
		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart/add", cartHandler.AddToCart)
		protected.POST("/cart/update", cartHandler.UpdateCartItem)
		protected.POST("/cart/remove", cartHandler.RemoveFromCart)
		protected.POST("/cart/reset", cartHandler.ResetCart)

		// Order routes
		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
		protected.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		// Product management
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.PATCH("/products/:id/availability", productHandler.SetProductAvailability)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		// Topping management
		admin.POST("/toppings", toppingHandler.CreateTopping)
		admin.PUT("/toppings/:id", toppingHandler.UpdateTopping)
		admin.PATCH("/toppings/:id/availability", toppingHandler.SetToppingAvailability)
		admin.DELETE("/toppings/:id", toppingHandler.DeleteTopping)

		// Category management
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		// Order management
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.GET("/orders/:id/transitions", orderHandler.GetOrderTransitions)

		// Voucher management
		admin.GET("/vouchers", voucherHandler.GetVouchers)
		admin.POST("/vouchers", voucherHandler.CreateVoucher)
		admin.PUT("/vouchers/:id", voucherHandler.UpdateVoucher)
		admin.DELETE("/vouchers/:id", voucherHandler.DeleteVoucher)

		// Store hours
		admin.PUT("/store-hours", hoursHandler.UpdateStoreHours)

		// Dashboard
		admin.GET("/stats", statsHandler.GetDashboardStats)
		admin.GET("/stats/revenue", statsHandler.GetRevenueByDay)
		admin.GET("/stats/top-drinks", statsHandler.GetTopDrinks)
		admin.GET("/stats/recent-orders", statsHandler.GetRecentOrders)

		// Customer management
		admin.GET("/customers", authHandler.ListCustomers)
		admin.PATCH("/customers/:id/blocked", authHandler.SetCustomerBlocked)
		admin.POST("/admins", authHandler.CreateAdmin)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
