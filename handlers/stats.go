package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatsHandler struct {
	DB *gorm.DB
}

type revenueByDay struct {
	Day     string `json:"day"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type topDrink struct {
	ProductID string `json:"product_id"`
	NameVi    string `json:"name_vi"`
	NameEn    string `json:"name_en"`
	Sold      int64  `json:"sold"`
}

// GetDashboardStats aggregates the numbers shown on the admin dashboard
// landing page. Revenue counts only completed orders.
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	var productCount, categoryCount, orderCount, customerCount int64
	h.DB.Model(&models.Product{}).Count(&productCount)
	h.DB.Model(&models.Category{}).Count(&categoryCount)
	h.DB.Model(&models.Order{}).Count(&orderCount)
	h.DB.Model(&models.User{}).Where("role = ?", "customer").Count(&customerCount)

	var totalRevenue int64
	h.DB.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("COALESCE(SUM(total), 0)").Scan(&totalRevenue)

	weekAgo := time.Now().AddDate(0, 0, -7)
	var weekRevenue int64
	h.DB.Model(&models.Order{}).
		Where("status = ? AND created_at >= ?", models.OrderStatusCompleted, weekAgo).
		Select("COALESCE(SUM(total), 0)").Scan(&weekRevenue)

	var pendingOrders int64
	h.DB.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).Count(&pendingOrders)

	utils.Respond(c, http.StatusOK, gin.H{
		"products":       productCount,
		"categories":     categoryCount,
		"orders":         orderCount,
		"customers":      customerCount,
		"total_revenue":  totalRevenue,
		"week_revenue":   weekRevenue,
		"pending_orders": pendingOrders,
	}, "stats.fetched")
}

// GetRevenueByDay returns daily completed-order revenue for the last N days
// (default 7, capped at 90).
func (h *StatsHandler) GetRevenueByDay(c *gin.Context) {
	days := 7
	if d := c.Query("days"); d != "" {
		if parsed, err := parseDays(d); err == nil {
			days = parsed
		}
	}

	since := time.Now().AddDate(0, 0, -days)

	var rows []revenueByDay
	err := h.DB.Model(&models.Order{}).
		Where("status = ? AND created_at >= ?", models.OrderStatusCompleted, since).
		Select("DATE(created_at) AS day, COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "stats.fetchFailed")
		return
	}

	utils.Respond(c, http.StatusOK, rows, "stats.fetched")
}

// GetTopDrinks ranks products by quantity sold across completed orders.
func (h *StatsHandler) GetTopDrinks(c *gin.Context) {
	var rows []topDrink
	err := h.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.OrderStatusCompleted).
		Select("order_items.product_id AS product_id, order_items.name_vi AS name_vi, order_items.name_en AS name_en, SUM(order_items.quantity) AS sold").
		Group("order_items.product_id, order_items.name_vi, order_items.name_en").
		Order("sold DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "stats.fetchFailed")
		return
	}

	utils.Respond(c, http.StatusOK, rows, "stats.fetched")
}

// GetRecentOrders returns the latest orders for the dashboard activity feed.
func (h *StatsHandler) GetRecentOrders(c *gin.Context) {
	var orders []models.Order
	if err := h.DB.Preload("Items").Order("created_at DESC").Limit(10).Find(&orders).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "stats.fetchFailed")
		return
	}

	utils.Respond(c, http.StatusOK, orders, "stats.fetched")
}

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid days")
	}
	if n > 90 {
		n = 90
	}
	return n, nil
}
