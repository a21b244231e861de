package handlers

import (
	"net/http"

	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HoursHandler struct {
	DB *gorm.DB
}

// GetStoreHours returns the weekly schedule, one row per day of week.
// Public so the storefront can show opening times.
func (h *HoursHandler) GetStoreHours(c *gin.Context) {
	var hours []models.StoreHours
	if err := h.DB.Order("day_of_week ASC").Find(&hours).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "hours.fetchFailed")
		return
	}

	utils.Respond(c, http.StatusOK, hours, "hours.fetched")
}

// UpdateStoreHours replaces the schedule for a single day.
func (h *HoursHandler) UpdateStoreHours(c *gin.Context) {
	var req struct {
		DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
		OpenTime  string `json:"open_time" binding:"required"`
		CloseTime string `json:"close_time" binding:"required"`
		IsClosed  bool   `json:"is_closed"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "hours.invalidRequest")
		return
	}

	if !utils.IsValidClock(req.OpenTime) || !utils.IsValidClock(req.CloseTime) {
		utils.Fail(c, http.StatusBadRequest, "hours.invalidClock")
		return
	}
	if req.OpenTime >= req.CloseTime {
		utils.Fail(c, http.StatusBadRequest, "hours.openAfterClose")
		return
	}

	var hours models.StoreHours
	err := h.DB.Where("day_of_week = ?", *req.DayOfWeek).First(&hours).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			utils.Fail(c, http.StatusInternalServerError, "hours.updateFailed")
			return
		}
		hours = models.StoreHours{DayOfWeek: *req.DayOfWeek}
	}

	hours.OpenTime = req.OpenTime
	hours.CloseTime = req.CloseTime
	hours.IsClosed = req.IsClosed

	if err := h.DB.Save(&hours).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "hours.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, hours, "hours.updated")
}
