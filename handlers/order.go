package handlers

import (
	"net/http"
	"time"

	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

// orderingWindow returns the ordering window for the given moment, falling
// back to the default 07:00-22:00 when no per-day row exists.
func orderingWindow(db *gorm.DB, now time.Time) (open, close string, closed bool) {
	var hours models.StoreHours
	if err := db.Where("day_of_week = ?", int(now.Weekday())).First(&hours).Error; err != nil {
		return utils.DefaultOpenTime, utils.DefaultCloseTime, false
	}
	return hours.OpenTime, hours.CloseTime, hours.IsClosed
}

// withinOrderingHours reports whether orders may be placed right now.
func withinOrderingHours(db *gorm.DB, now time.Time) bool {
	open, close, closed := orderingWindow(db, now)
	if closed {
		return false
	}
	return utils.WithinWindow(now, open, close)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var req struct {
		CartItemIDs   []uuid.UUID `json:"cart_item_ids" binding:"required,min=1"`
		VoucherCode   string      `json:"voucher_code"`
		PaymentMethod string      `json:"payment_method"`
		Note          string      `json:"note"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "order.invalidRequest")
		return
	}

	now := time.Now()
	if !withinOrderingHours(h.DB, now) {
		utils.Fail(c, http.StatusBadRequest, "order.outsideHours")
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Preload("Product").Preload("Toppings").
		Where("id IN ? AND user_id = ?", req.CartItemIDs, userID).
		Order("created_at ASC").Find(&cartItems).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.fetchFailed")
		return
	}

	if len(cartItems) == 0 {
		utils.Fail(c, http.StatusBadRequest, "order.cartEmpty")
		return
	}

	// Re-price every line against the live menu. The client filters
	// unavailable lines before submitting; anything unavailable that still
	// arrives here is rejected, never silently ordered.
	var subtotal int
	var orderItems []models.OrderItem

	for _, item := range cartItems {
		if !item.Product.IsAvailable {
			utils.Fail(c, http.StatusBadRequest, "order.itemUnavailable")
			return
		}
		sizePrice, ok := item.Product.PriceForSize(item.Size)
		if !ok {
			utils.Fail(c, http.StatusBadRequest, "order.sizeNotOffered")
			return
		}

		unitPrice := sizePrice
		var itemToppings []models.OrderItemTopping
		for _, t := range item.Toppings {
			if !t.IsAvailable {
				utils.Fail(c, http.StatusBadRequest, "order.toppingUnavailable")
				return
			}
			unitPrice += t.Price
			itemToppings = append(itemToppings, models.OrderItemTopping{
				ToppingID: t.ID,
				NameVi:    t.NameVi,
				NameEn:    t.NameEn,
				Price:     t.Price,
			})
		}

		subtotal += unitPrice * item.Quantity
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			NameVi:    item.Product.NameVi,
			NameEn:    item.Product.NameEn,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Toppings:  itemToppings,
		})
	}

	// Voucher
	discount := 0
	var voucher *models.Voucher
	if req.VoucherCode != "" {
		var v models.Voucher
		if err := h.DB.Where("code = ?", req.VoucherCode).First(&v).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "voucher.notFound")
			return
		}
		if !v.UsableAt(now) {
			utils.Fail(c, http.StatusBadRequest, "voucher.expired")
			return
		}
		if subtotal < v.MinOrderTotal {
			utils.Fail(c, http.StatusBadRequest, "voucher.minOrderNotMet")
			return
		}
		discount = v.DiscountFor(subtotal)
		voucher = &v
	}

	order := models.Order{
		ID:            uuid.New(),
		UserID:        userID.(uuid.UUID),
		Status:        models.OrderStatusPending,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         subtotal - discount,
		VoucherCode:   req.VoucherCode,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
	}

	tx := h.DB.Begin()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.Fail(c, http.StatusInternalServerError, "order.createFailed")
		return
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := tx.Omit("Product", "Order").CreateInBatches(&orderItems, 100).Error; err != nil {
		tx.Rollback()
		utils.Fail(c, http.StatusInternalServerError, "order.createFailed")
		return
	}

	if voucher != nil {
		if err := tx.Model(&models.Voucher{}).Where("id = ?", voucher.ID).
			Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
			tx.Rollback()
			utils.Fail(c, http.StatusInternalServerError, "order.createFailed")
			return
		}
	}

	// Remove the ordered lines from the cart
	if err := tx.Where("id IN ? AND user_id = ?", req.CartItemIDs, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		utils.Fail(c, http.StatusInternalServerError, "order.createFailed")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "order.createFailed")
		return
	}

	var user models.User
	h.DB.Where("id = ?", userID).First(&user)
	if user.Email != "" {
		utils.SendOrderConfirmation(user.Email, user.Name, order.OrderNumber, order.Total)
	}

	utils.Respond(c, http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	}, "order.created")
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, exists := c.Get("user_id")
	userRole, _ := c.Get("user_role")

	var orders []models.Order
	query := h.DB.Preload("Items").Preload("Items.Toppings").Preload("User")

	roleStr, _ := userRole.(string)
	if roleStr == "admin" {
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
	} else {
		if !exists {
			utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
			return
		}
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "order.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, orders, int64(len(orders)), "order.fetched")
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("user_id")
	userRole, _ := c.Get("user_role")

	var order models.Order
	query := h.DB.Preload("Items").Preload("Items.Toppings").Preload("User")

	if roleStr, _ := userRole.(string); roleStr == "admin" {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("id = ? AND user_id = ?", id, userID)
	}

	if err := query.First(&order).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "order.notFound")
		return
	}

	utils.Respond(c, http.StatusOK, order, "order.fetched")
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "order.invalidRequest")
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ?", id).First(&order).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "order.notFound")
		return
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		utils.Fail(c, http.StatusBadRequest, "order.invalidTransition")
		return
	}

	order.Status = req.Status
	if err := h.DB.Save(&order).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "order.updateFailed")
		return
	}

	h.DB.Preload("Items").Preload("Items.Toppings").Preload("User").First(&order, order.ID)

	if order.User.Email != "" {
		utils.SendOrderStatusUpdate(order.User.Email, order.User.Name, order.OrderNumber, string(req.Status))
	}

	utils.Respond(c, http.StatusOK, order, "order.statusUpdated")
}

// CancelOrder lets a customer cancel their own order while it is still pending.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "order.notFound")
		return
	}

	if order.Status != models.OrderStatusPending {
		utils.Fail(c, http.StatusBadRequest, "order.cannotCancel")
		return
	}

	order.Status = models.OrderStatusCancelled
	if err := h.DB.Save(&order).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "order.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, order, "order.cancelled")
}

func (h *OrderHandler) GetOrderTransitions(c *gin.Context) {
	utils.Respond(c, http.StatusOK, models.AllowedTransitions, "order.transitions")
}
