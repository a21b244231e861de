package handlers

import (
	"net/http"
	"sort"

	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartHandler struct {
	DB *gorm.DB
}

// normalizeToppingIDs sorts topping ids ascending and removes duplicates, so
// two lines with the same topping set always compare equal.
func normalizeToppingIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func sameToppingSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Preload("Product").Preload("Product.Category").Preload("Toppings").
		Where("user_id = ?", userID).Order("created_at ASC").Find(&cartItems).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.fetchFailed")
		return
	}

	utils.Respond(c, http.StatusOK, cartItems, "cart.fetched")
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var req struct {
		ProductID  uuid.UUID   `json:"product_id" binding:"required"`
		Size       string      `json:"size" binding:"required,oneof=S M L"`
		ToppingIDs []uuid.UUID `json:"topping_ids"`
		Quantity   int         `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "cart.invalidRequest")
		return
	}

	var product models.Product
	if err := h.DB.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "cart.productNotFound")
		return
	}
	if !product.IsAvailable {
		utils.Fail(c, http.StatusBadRequest, "cart.productUnavailable")
		return
	}
	if _, ok := product.PriceForSize(req.Size); !ok {
		utils.Fail(c, http.StatusBadRequest, "cart.sizeNotOffered")
		return
	}

	toppingIDs := normalizeToppingIDs(req.ToppingIDs)
	var toppings []models.Topping
	if len(toppingIDs) > 0 {
		if err := h.DB.Where("id IN ? AND is_available = ?", toppingIDs, true).Find(&toppings).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "cart.addFailed")
			return
		}
		if len(toppings) != len(toppingIDs) {
			utils.Fail(c, http.StatusBadRequest, "cart.toppingUnavailable")
			return
		}
	}

	// Merge into an existing line with the same drink, size and topping set.
	var existing []models.CartItem
	if err := h.DB.Preload("Toppings").
		Where("user_id = ? AND product_id = ? AND size = ?", userID, req.ProductID, req.Size).
		Find(&existing).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.addFailed")
		return
	}

	var cartItem models.CartItem
	merged := false
	for i := range existing {
		if sameToppingSet(normalizeToppingIDs(existing[i].ToppingIDs()), toppingIDs) {
			existing[i].Quantity += req.Quantity
			if err := h.DB.Save(&existing[i]).Error; err != nil {
				utils.Fail(c, http.StatusInternalServerError, "cart.addFailed")
				return
			}
			cartItem = existing[i]
			merged = true
			break
		}
	}

	if !merged {
		cartItem = models.CartItem{
			ID:        uuid.New(),
			UserID:    userID.(uuid.UUID),
			ProductID: req.ProductID,
			Size:      req.Size,
			Quantity:  req.Quantity,
			Toppings:  toppings,
		}
		if err := h.DB.Create(&cartItem).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "cart.addFailed")
			return
		}
	}

	h.DB.Preload("Product").Preload("Product.Category").Preload("Toppings").First(&cartItem, cartItem.ID)
	utils.Respond(c, http.StatusOK, cartItem, "cart.added")
}

// UpdateCartItem applies a quantity delta. It never drives a line to zero:
// a delta that would land at or below zero is rejected, deletion belongs to
// RemoveFromCart.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var req struct {
		CartItemID uuid.UUID `json:"cart_item_id" binding:"required"`
		Quantity   int       `json:"quantity" binding:"required,min=1"`
		Direction  string    `json:"direction" binding:"required,oneof=increase decrease"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "cart.invalidRequest")
		return
	}

	var cartItem models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", req.CartItemID, userID).First(&cartItem).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "cart.itemNotFound")
		return
	}

	newQuantity := cartItem.Quantity + req.Quantity
	if req.Direction == "decrease" {
		newQuantity = cartItem.Quantity - req.Quantity
	}
	if newQuantity < 1 {
		utils.Fail(c, http.StatusBadRequest, "cart.quantityInvalid")
		return
	}

	cartItem.Quantity = newQuantity
	if err := h.DB.Save(&cartItem).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.updateFailed")
		return
	}

	h.DB.Preload("Product").Preload("Product.Category").Preload("Toppings").First(&cartItem, cartItem.ID)
	utils.Respond(c, http.StatusOK, cartItem, "cart.updated")
}

// RemoveFromCart deletes a line. Removing an id that is already gone is not
// an error.
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var req struct {
		CartItemID uuid.UUID `json:"cart_item_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "cart.invalidRequest")
		return
	}

	if err := h.DB.Where("id = ? AND user_id = ?", req.CartItemID, userID).Delete(&models.CartItem{}).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.removeFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "cart.removed")
}

func (h *CartHandler) ResetCart(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "cart.resetFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "cart.cleared")
}
