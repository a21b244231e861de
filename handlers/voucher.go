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

type VoucherHandler struct {
	DB *gorm.DB
}

// VerifyVoucher checks a code against an order subtotal and returns the
// discount it would grant. Used by the checkout page before submission.
func (h *VoucherHandler) VerifyVoucher(c *gin.Context) {
	var req struct {
		Code       string `json:"code" binding:"required"`
		OrderTotal int    `json:"order_total" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "voucher.invalidRequest")
		return
	}

	var voucher models.Voucher
	if err := h.DB.Where("code = ?", req.Code).First(&voucher).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "voucher.notFound")
		return
	}

	if !voucher.UsableAt(time.Now()) {
		utils.Fail(c, http.StatusBadRequest, "voucher.expired")
		return
	}

	if req.OrderTotal < voucher.MinOrderTotal {
		utils.Fail(c, http.StatusBadRequest, "voucher.minOrderNotMet")
		return
	}

	utils.Respond(c, http.StatusOK, gin.H{
		"code":     voucher.Code,
		"discount": voucher.DiscountFor(req.OrderTotal),
	}, "voucher.valid")
}

func (h *VoucherHandler) GetVouchers(c *gin.Context) {
	var vouchers []models.Voucher
	if err := h.DB.Order("created_at DESC").Find(&vouchers).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "voucher.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, vouchers, int64(len(vouchers)), "voucher.fetched")
}

type voucherRequest struct {
	Code            string     `json:"code" binding:"required"`
	Description     string     `json:"description"`
	DiscountPercent *int       `json:"discount_percent" binding:"omitempty,min=1,max=100"`
	DiscountAmount  *int       `json:"discount_amount" binding:"omitempty,min=1"`
	MinOrderTotal   int        `json:"min_order_total"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	IsActive        *bool      `json:"is_active"`
	MaxUses         int        `json:"max_uses"`
}

func (r *voucherRequest) validDiscount() bool {
	// Exactly one discount form
	return (r.DiscountPercent != nil) != (r.DiscountAmount != nil)
}

func (h *VoucherHandler) CreateVoucher(c *gin.Context) {
	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "voucher.invalidRequest")
		return
	}
	if !req.validDiscount() {
		utils.Fail(c, http.StatusBadRequest, "voucher.discountInvalid")
		return
	}

	var existing models.Voucher
	if err := h.DB.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		utils.Fail(c, http.StatusConflict, "voucher.codeExists")
		return
	}

	voucher := models.Voucher{
		ID:              uuid.New(),
		Code:            req.Code,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		MinOrderTotal:   req.MinOrderTotal,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        req.IsActive == nil || *req.IsActive,
		MaxUses:         req.MaxUses,
	}
	if err := h.DB.Create(&voucher).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "voucher.createFailed")
		return
	}

	utils.Respond(c, http.StatusCreated, voucher, "voucher.created")
}

func (h *VoucherHandler) UpdateVoucher(c *gin.Context) {
	id := c.Param("id")
	var voucher models.Voucher

	if err := h.DB.Where("id = ?", id).First(&voucher).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "voucher.notFound")
		return
	}

	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "voucher.invalidRequest")
		return
	}
	if !req.validDiscount() {
		utils.Fail(c, http.StatusBadRequest, "voucher.discountInvalid")
		return
	}

	voucher.Code = req.Code
	voucher.Description = req.Description
	voucher.DiscountPercent = req.DiscountPercent
	voucher.DiscountAmount = req.DiscountAmount
	voucher.MinOrderTotal = req.MinOrderTotal
	voucher.StartDate = req.StartDate
	voucher.EndDate = req.EndDate
	if req.IsActive != nil {
		voucher.IsActive = *req.IsActive
	}
	voucher.MaxUses = req.MaxUses

	if err := h.DB.Save(&voucher).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "voucher.updateFailed")
		return
	}

	// Save skips zero-value bools on some drivers; write is_active explicitly
	h.DB.Model(&voucher).Update("is_active", voucher.IsActive)

	utils.Respond(c, http.StatusOK, voucher, "voucher.updated")
}

func (h *VoucherHandler) DeleteVoucher(c *gin.Context) {
	id := c.Param("id")

	if err := h.DB.Delete(&models.Voucher{}, "id = ?", id).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "voucher.deleteFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "voucher.deleted")
}
