package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"trasua-backend/middleware"
	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	// Limit to 1 open connection to prevent SQLite concurrent access issues
	// with in-memory databases.
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	// Create tables using raw SQLite-compatible SQL instead of AutoMigrate,
	// because the GORM model tags use PostgreSQL-specific defaults like gen_random_uuid().
	if err := createSQLiteTables(testDB); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	code := m.Run()
	os.Exit(code)
}

// freshDB returns a clean database for each test by deleting all rows.
func freshDB() *gorm.DB {
	// Delete in correct order to respect foreign keys
	testDB.Exec("DELETE FROM order_item_toppings")
	testDB.Exec("DELETE FROM order_items")
	testDB.Exec("DELETE FROM orders")
	testDB.Exec("DELETE FROM cart_item_toppings")
	testDB.Exec("DELETE FROM cart_items")
	testDB.Exec("DELETE FROM vouchers")
	testDB.Exec("DELETE FROM store_hours")
	testDB.Exec("DELETE FROM products")
	testDB.Exec("DELETE FROM toppings")
	testDB.Exec("DELETE FROM categories")
	testDB.Exec("DELETE FROM password_reset_tokens")
	testDB.Exec("DELETE FROM refresh_tokens")
	testDB.Exec("DELETE FROM users")
	return testDB
}

// createSQLiteTables creates all tables with SQLite-compatible DDL.
func createSQLiteTables(db *gorm.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"name" TEXT,
			"role" TEXT DEFAULT 'customer',
			"phone" TEXT,
			"is_blocked" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON "users"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "refresh_tokens" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL,
			"revoked_at" DATETIME,
			"created_at" DATETIME,
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON "refresh_tokens"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "password_reset_tokens" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL,
			"used_at" DATETIME,
			"created_at" DATETIME,
			CONSTRAINT fk_password_reset_tokens_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user_id ON "password_reset_tokens"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "categories" (
			"id" TEXT PRIMARY KEY,
			"name_vi" TEXT NOT NULL,
			"name_en" TEXT NOT NULL,
			"description" TEXT,
			"image" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_deleted_at ON "categories"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "products" (
			"id" TEXT PRIMARY KEY,
			"name_vi" TEXT NOT NULL,
			"name_en" TEXT NOT NULL,
			"description_vi" TEXT,
			"description_en" TEXT,
			"price_s" INTEGER,
			"price_m" INTEGER,
			"price_l" INTEGER,
			"is_available" INTEGER DEFAULT 1,
			"image" TEXT,
			"category_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_products_category FOREIGN KEY ("category_id") REFERENCES "categories"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_deleted_at ON "products"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_id ON "products"("category_id")`,

		`CREATE TABLE IF NOT EXISTS "toppings" (
			"id" TEXT PRIMARY KEY,
			"name_vi" TEXT NOT NULL,
			"name_en" TEXT NOT NULL,
			"price" INTEGER NOT NULL,
			"is_available" INTEGER DEFAULT 1,
			"image" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_toppings_deleted_at ON "toppings"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "cart_items" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"product_id" TEXT NOT NULL,
			"size" TEXT NOT NULL,
			"quantity" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_cart_items_user FOREIGN KEY ("user_id") REFERENCES "users"("id"),
			CONSTRAINT fk_cart_items_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_deleted_at ON "cart_items"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON "cart_items"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "cart_item_toppings" (
			"cart_item_id" TEXT NOT NULL,
			"topping_id" TEXT NOT NULL,
			PRIMARY KEY ("cart_item_id", "topping_id"),
			CONSTRAINT fk_cart_item_toppings_cart_item FOREIGN KEY ("cart_item_id") REFERENCES "cart_items"("id"),
			CONSTRAINT fk_cart_item_toppings_topping FOREIGN KEY ("topping_id") REFERENCES "toppings"("id")
		)`,

		`CREATE TABLE IF NOT EXISTS "orders" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"order_number" TEXT NOT NULL UNIQUE,
			"status" TEXT DEFAULT 'pending',
			"subtotal" INTEGER NOT NULL,
			"discount" INTEGER DEFAULT 0,
			"total" INTEGER NOT NULL,
			"voucher_code" TEXT,
			"payment_method" TEXT,
			"note" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_orders_user FOREIGN KEY ("user_id") REFERENCES "users"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_deleted_at ON "orders"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON "orders"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "order_items" (
			"id" TEXT PRIMARY KEY,
			"order_id" TEXT NOT NULL,
			"product_id" TEXT NOT NULL,
			"name_vi" TEXT,
			"name_en" TEXT,
			"size" TEXT NOT NULL,
			"quantity" INTEGER NOT NULL,
			"unit_price" INTEGER NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_order_items_order FOREIGN KEY ("order_id") REFERENCES "orders"("id"),
			CONSTRAINT fk_order_items_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON "order_items"("order_id")`,

		`CREATE TABLE IF NOT EXISTS "order_item_toppings" (
			"id" TEXT PRIMARY KEY,
			"order_item_id" TEXT NOT NULL,
			"topping_id" TEXT NOT NULL,
			"name_vi" TEXT,
			"name_en" TEXT,
			"price" INTEGER NOT NULL,
			"created_at" DATETIME,
			CONSTRAINT fk_order_item_toppings_order_item FOREIGN KEY ("order_item_id") REFERENCES "order_items"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_item_toppings_order_item_id ON "order_item_toppings"("order_item_id")`,

		`CREATE TABLE IF NOT EXISTS "vouchers" (
			"id" TEXT PRIMARY KEY,
			"code" TEXT NOT NULL UNIQUE,
			"description" TEXT,
			"discount_percent" INTEGER,
			"discount_amount" INTEGER,
			"min_order_total" INTEGER DEFAULT 0,
			"start_date" DATETIME,
			"end_date" DATETIME,
			"is_active" INTEGER DEFAULT 1,
			"max_uses" INTEGER DEFAULT 0,
			"used_count" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_deleted_at ON "vouchers"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "store_hours" (
			"id" TEXT PRIMARY KEY,
			"day_of_week" INTEGER NOT NULL UNIQUE,
			"open_time" TEXT NOT NULL DEFAULT '07:00',
			"close_time" TEXT NOT NULL DEFAULT '22:00',
			"is_closed" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME
		)`,
	}

	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			return err
		}
	}
	return nil
}

// ==================== Seed Helpers ====================

// seedTestUser creates a user with the given role and returns it along with a valid JWT token.
func seedTestUser(db *gorm.DB, email, role string) (models.User, string) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		Name:     "Test User",
		Role:     role,
	}
	db.Create(&user)

	token, _ := utils.GenerateToken(user.ID, user.Email, user.Role)
	return user, token
}

// seedCategory creates a test category.
func seedCategory(db *gorm.DB, nameEn string) models.Category {
	cat := models.Category{
		ID:     uuid.New(),
		NameVi: nameEn + " VN",
		NameEn: nameEn,
	}
	db.Create(&cat)
	return cat
}

// seedDrink creates an available product priced for size M.
func seedDrink(db *gorm.DB, nameEn string, categoryID uuid.UUID, priceM int) models.Product {
	prod := models.Product{
		ID:          uuid.New(),
		NameVi:      nameEn + " VN",
		NameEn:      nameEn,
		PriceM:      &priceM,
		IsAvailable: true,
		CategoryID:  categoryID,
	}
	db.Create(&prod)
	return prod
}

// seedTopping creates a topping. After creation it explicitly updates
// is_available so false values survive GORM's zero-value skip on Create.
func seedTopping(db *gorm.DB, nameEn string, price int, available bool) models.Topping {
	top := models.Topping{
		ID:          uuid.New(),
		NameVi:      nameEn + " VN",
		NameEn:      nameEn,
		Price:       price,
		IsAvailable: available,
	}
	db.Create(&top)
	db.Model(&top).Update("is_available", available)
	return top
}

// seedCartItem creates a cart line for the user.
func seedCartItem(db *gorm.DB, userID uuid.UUID, product models.Product, size string, quantity int, toppings []models.Topping) models.CartItem {
	item := models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Size:      size,
		Quantity:  quantity,
		Toppings:  toppings,
	}
	db.Create(&item)
	return item
}

// seedVoucher creates an active percent-discount voucher.
func seedVoucher(db *gorm.DB, code string, percent int, minOrderTotal int) models.Voucher {
	v := models.Voucher{
		ID:              uuid.New(),
		Code:            code,
		DiscountPercent: &percent,
		MinOrderTotal:   minOrderTotal,
		IsActive:        true,
	}
	db.Create(&v)
	return v
}

// seedStoreHours creates the full week with the given window.
func seedStoreHours(db *gorm.DB, open, close string) []models.StoreHours {
	hours := make([]models.StoreHours, 7)
	for day := 0; day < 7; day++ {
		h := models.StoreHours{
			ID:        uuid.New(),
			DayOfWeek: day,
			OpenTime:  open,
			CloseTime: close,
		}
		db.Create(&h)
		hours[day] = h
	}
	return hours
}

// seedOrder creates an order with one snapshot item.
func seedOrder(db *gorm.DB, userID, productID uuid.UUID, status models.OrderStatus) models.Order {
	orderID := uuid.New()
	order := models.Order{
		ID:          orderID,
		UserID:      userID,
		OrderNumber: "TS" + time.Now().Format("20060102150405") + orderID.String()[:8],
		Status:      status,
		Subtotal:    50000,
		Total:       50000,
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: productID,
				NameVi:    "Tra sua",
				NameEn:    "Milk tea",
				Size:      models.SizeM,
				Quantity:  1,
				UnitPrice: 50000,
			},
		},
	}
	db.Create(&order)
	db.Model(&order).Update("status", string(status))
	return order
}

// ==================== Router Builders ====================

func setupAuthRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	authHandler := &AuthHandler{DB: db}

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authHandler.ResetPassword)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/auth/profile", authHandler.GetProfile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/customers", authHandler.ListCustomers)
	admin.PATCH("/customers/:id/blocked", authHandler.SetCustomerBlocked)
	admin.POST("/admins", authHandler.CreateAdmin)

	return r
}

func setupCartRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	cartHandler := &CartHandler{DB: db}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/cart", cartHandler.GetCart)
	protected.POST("/cart/add", cartHandler.AddToCart)
	protected.POST("/cart/update", cartHandler.UpdateCartItem)
	protected.POST("/cart/remove", cartHandler.RemoveFromCart)
	protected.POST("/cart/reset", cartHandler.ResetCart)

	return r
}

func setupOrderRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	orderHandler := &OrderHandler{DB: db}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/orders", orderHandler.CreateOrder)
	protected.GET("/orders", orderHandler.GetOrders)
	protected.GET("/orders/:id", orderHandler.GetOrder)
	protected.POST("/orders/:id/cancel", orderHandler.CancelOrder)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
	admin.GET("/orders/:id/transitions", orderHandler.GetOrderTransitions)

	return r
}

func setupProductRouter(db *gorm.DB, storage *mockStorage) *gin.Engine {
	r := gin.New()
	productHandler := &ProductHandler{DB: db, Storage: storage}

	api := r.Group("/api")
	api.GET("/products", productHandler.GetProducts)
	api.GET("/products/:id", productHandler.GetProduct)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/products", productHandler.CreateProduct)
	admin.PUT("/products/:id", productHandler.UpdateProduct)
	admin.PATCH("/products/:id/availability", productHandler.SetProductAvailability)
	admin.DELETE("/products/:id", productHandler.DeleteProduct)

	return r
}

func setupToppingRouter(db *gorm.DB, storage *mockStorage) *gin.Engine {
	r := gin.New()
	toppingHandler := &ToppingHandler{DB: db, Storage: storage}

	api := r.Group("/api")
	api.GET("/toppings", toppingHandler.GetToppings)
	api.GET("/toppings/:id", toppingHandler.GetTopping)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/toppings", toppingHandler.CreateTopping)
	admin.PUT("/toppings/:id", toppingHandler.UpdateTopping)
	admin.PATCH("/toppings/:id/availability", toppingHandler.SetToppingAvailability)
	admin.DELETE("/toppings/:id", toppingHandler.DeleteTopping)

	return r
}

func setupCategoryRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	categoryHandler := &CategoryHandler{DB: db}

	api := r.Group("/api")
	api.GET("/categories", categoryHandler.GetCategories)
	api.GET("/categories/:id", categoryHandler.GetCategory)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/categories", categoryHandler.CreateCategory)
	admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
	admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	return r
}

func setupVoucherRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	voucherHandler := &VoucherHandler{DB: db}

	api := r.Group("/api")
	api.POST("/vouchers/verify", voucherHandler.VerifyVoucher)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/vouchers", voucherHandler.GetVouchers)
	admin.POST("/vouchers", voucherHandler.CreateVoucher)
	admin.PUT("/vouchers/:id", voucherHandler.UpdateVoucher)
	admin.DELETE("/vouchers/:id", voucherHandler.DeleteVoucher)

	return r
}

func setupStatsRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	statsHandler := &StatsHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/stats", statsHandler.GetDashboardStats)
	admin.GET("/stats/revenue", statsHandler.GetRevenueByDay)
	admin.GET("/stats/top-drinks", statsHandler.GetTopDrinks)
	admin.GET("/stats/recent-orders", statsHandler.GetRecentOrders)

	return r
}

func setupHoursRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	hoursHandler := &HoursHandler{DB: db}

	api := r.Group("/api")
	api.GET("/store-hours", hoursHandler.GetStoreHours)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.PUT("/store-hours", hoursHandler.UpdateStoreHours)

	return r
}

// ==================== Request Helpers ====================

// jsonRequest creates an HTTP request with a JSON body.
func jsonRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authRequest creates an HTTP request with JSON body and Authorization header.
func authRequest(method, url string, body interface{}, token string) *http.Request {
	req := jsonRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// multipartRequest creates a multipart form request with the given fields and file uploads.
func multipartRequest(method, url string, fields map[string]string, files map[string]string, token string) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, val := range fields {
		_ = writer.WriteField(key, val)
	}

	for fieldName, filename := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, filename))
		h.Set("Content-Type", "image/jpeg")

		part, err := writer.CreatePart(h)
		if err != nil {
			panic("failed to create multipart file part: " + err.Error())
		}
		part.Write([]byte("fake image data"))
	}

	writer.Close()

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ==================== Response Helpers ====================

// parseEnvelope reads the full response envelope into a map.
func parseEnvelope(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// responseMessage returns the envelope's message key.
func responseMessage(w *httptest.ResponseRecorder) string {
	env := parseEnvelope(w)
	msg, _ := env["message"].(string)
	return msg
}

// responseData returns the envelope's data field as a map.
func responseData(w *httptest.ResponseRecorder) map[string]interface{} {
	env := parseEnvelope(w)
	data, _ := env["data"].(map[string]interface{})
	return data
}

// responseList returns the envelope's data field as a slice.
func responseList(w *httptest.ResponseRecorder) []interface{} {
	env := parseEnvelope(w)
	data, _ := env["data"].([]interface{})
	return data
}
