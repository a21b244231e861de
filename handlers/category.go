package handlers

import (
	"net/http"

	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := h.DB.Order("created_at ASC").Find(&categories).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "category.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, categories, int64(len(categories)), "category.fetched")
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id := c.Param("id")
	var category models.Category

	if err := h.DB.Preload("Products").Where("id = ?", id).First(&category).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "category.notFound")
		return
	}

	utils.Respond(c, http.StatusOK, category, "category.fetched")
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req struct {
		NameVi      string `json:"name_vi" binding:"required"`
		NameEn      string `json:"name_en" binding:"required"`
		Description string `json:"description"`
		Image       string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "category.invalidRequest")
		return
	}

	category := models.Category{
		ID:          uuid.New(),
		NameVi:      req.NameVi,
		NameEn:      req.NameEn,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "category.createFailed")
		return
	}

	utils.Respond(c, http.StatusCreated, category, "category.created")
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id := c.Param("id")
	var category models.Category

	if err := h.DB.Where("id = ?", id).First(&category).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "category.notFound")
		return
	}

	var req struct {
		NameVi      string `json:"name_vi" binding:"required"`
		NameEn      string `json:"name_en" binding:"required"`
		Description string `json:"description"`
		Image       string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "category.invalidRequest")
		return
	}

	category.NameVi = req.NameVi
	category.NameEn = req.NameEn
	category.Description = req.Description
	if req.Image != "" {
		category.Image = req.Image
	}

	if err := h.DB.Save(&category).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "category.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, category, "category.updated")
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := c.Param("id")

	// Refuse to delete a category that still has drinks
	var productCount int64
	if err := h.DB.Model(&models.Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "category.deleteFailed")
		return
	}
	if productCount > 0 {
		utils.Fail(c, http.StatusBadRequest, "category.hasProducts")
		return
	}

	if err := h.DB.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "category.deleteFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "category.deleted")
}
