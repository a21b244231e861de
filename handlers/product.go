package handlers

import (
	"log"
	"net/http"
	"strconv"

	"trasua-backend/firebase"
	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

// GetProducts returns the storefront menu: available drinks only, unless
// show_all=true (admin listing).
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var products []models.Product
	query := h.DB.Preload("Category")

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	if c.Query("show_all") != "true" {
		query = query.Where("is_available = ?", true)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name_vi) LIKE LOWER(?) OR LOWER(name_en) LIKE LOWER(?)",
			"%"+search+"%", "%"+search+"%")
	}

	if err := query.Order("created_at ASC").Find(&products).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, products, int64(len(products)), "product.fetched")
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	var product models.Product

	if err := h.DB.Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "product.notFound")
		return
	}

	utils.Respond(c, http.StatusOK, product, "product.fetched")
}

// parsePriceField reads an optional integer form field. Empty means the size
// is not offered.
func parsePriceField(c *gin.Context, field string) (*int, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func (h *ProductHandler) productFromForm(c *gin.Context, product *models.Product) bool {
	product.NameVi = c.PostForm("name_vi")
	product.NameEn = c.PostForm("name_en")
	product.DescriptionVi = c.PostForm("description_vi")
	product.DescriptionEn = c.PostForm("description_en")
	product.IsAvailable = c.PostForm("is_available") != "false"

	if product.NameVi == "" || product.NameEn == "" {
		utils.Fail(c, http.StatusBadRequest, "product.nameRequired")
		return false
	}

	for field, target := range map[string]**int{
		"price_s": &product.PriceS,
		"price_m": &product.PriceM,
		"price_l": &product.PriceL,
	} {
		price, ok := parsePriceField(c, field)
		if !ok {
			utils.Fail(c, http.StatusBadRequest, "product.priceInvalid")
			return false
		}
		*target = price
	}

	if !product.HasAnyPrice() {
		utils.Fail(c, http.StatusBadRequest, "product.priceRequired")
		return false
	}

	categoryID, err := uuid.Parse(c.PostForm("category_id"))
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "product.categoryInvalid")
		return false
	}
	var category models.Category
	if err := h.DB.Where("id = ?", categoryID).First(&category).Error; err != nil {
		utils.Fail(c, http.StatusBadRequest, "product.categoryNotFound")
		return false
	}
	product.CategoryID = categoryID

	return true
}

func (h *ProductHandler) uploadImage(c *gin.Context, required bool) (string, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if required {
			utils.Fail(c, http.StatusBadRequest, "product.imageRequired")
			return "", false
		}
		return "", true
	}

	if err := utils.ValidateFileUpload(fileHeader); err != nil {
		utils.Fail(c, http.StatusBadRequest, "product.imageInvalid")
		return "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, http.StatusBadRequest, "product.imageInvalid")
		return "", false
	}
	defer file.Close()

	imageURL, err := h.Storage.UploadProductImage(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.imageUploadFailed")
		return "", false
	}

	return imageURL, true
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	product.ID = uuid.New()

	if !h.productFromForm(c, &product) {
		return
	}

	imageURL, ok := h.uploadImage(c, false)
	if !ok {
		return
	}
	product.Image = imageURL

	if err := h.DB.Create(&product).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.createFailed")
		return
	}

	utils.Respond(c, http.StatusCreated, product, "product.created")
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	var product models.Product

	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "product.notFound")
		return
	}

	if !h.productFromForm(c, &product) {
		return
	}

	imageURL, ok := h.uploadImage(c, false)
	if !ok {
		return
	}
	if imageURL != "" {
		// Delete the replaced image, best effort
		if product.Image != "" {
			if path, err := utils.ExtractObjectPath(product.Image); err == nil {
				if err := h.Storage.DeleteFile(path); err != nil {
					log.Printf("Failed to delete old product image %s: %v", path, err)
				}
			}
		}
		product.Image = imageURL
	}

	if err := h.DB.Save(&product).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, product, "product.updated")
}

// SetProductAvailability toggles is_available without touching the rest of
// the product, so the dashboard can mark a drink sold out in one click.
func (h *ProductHandler) SetProductAvailability(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "product.invalidRequest")
		return
	}

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "product.notFound")
		return
	}

	if err := h.DB.Model(&product).Update("is_available", *req.IsAvailable).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, product, "product.updated")
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "product.notFound")
		return
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "product.deleteFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "product.deleted")
}
