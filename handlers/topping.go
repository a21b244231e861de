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

type ToppingHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func (h *ToppingHandler) GetToppings(c *gin.Context) {
	var toppings []models.Topping
	query := h.DB

	if c.Query("show_all") != "true" {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Order("created_at ASC").Find(&toppings).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "topping.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, toppings, int64(len(toppings)), "topping.fetched")
}

func (h *ToppingHandler) GetTopping(c *gin.Context) {
	id := c.Param("id")
	var topping models.Topping

	if err := h.DB.Where("id = ?", id).First(&topping).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "topping.notFound")
		return
	}

	utils.Respond(c, http.StatusOK, topping, "topping.fetched")
}

func (h *ToppingHandler) toppingFromForm(c *gin.Context, topping *models.Topping) bool {
	topping.NameVi = c.PostForm("name_vi")
	topping.NameEn = c.PostForm("name_en")
	topping.IsAvailable = c.PostForm("is_available") != "false"

	if topping.NameVi == "" || topping.NameEn == "" {
		utils.Fail(c, http.StatusBadRequest, "topping.nameRequired")
		return false
	}

	price, err := strconv.Atoi(c.PostForm("price"))
	if err != nil || price < 0 {
		utils.Fail(c, http.StatusBadRequest, "topping.priceInvalid")
		return false
	}
	topping.Price = price

	return true
}

func (h *ToppingHandler) CreateTopping(c *gin.Context) {
	var topping models.Topping
	topping.ID = uuid.New()

	if !h.toppingFromForm(c, &topping) {
		return
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		if err := utils.ValidateFileUpload(fileHeader); err != nil {
			utils.Fail(c, http.StatusBadRequest, "topping.imageInvalid")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "topping.imageInvalid")
			return
		}
		defer file.Close()

		imageURL, err := h.Storage.UploadToppingImage(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "topping.imageUploadFailed")
			return
		}
		topping.Image = imageURL
	}

	if err := h.DB.Create(&topping).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "topping.createFailed")
		return
	}

	utils.Respond(c, http.StatusCreated, topping, "topping.created")
}

func (h *ToppingHandler) UpdateTopping(c *gin.Context) {
	id := c.Param("id")
	var topping models.Topping

	if err := h.DB.Where("id = ?", id).First(&topping).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "topping.notFound")
		return
	}

	if !h.toppingFromForm(c, &topping) {
		return
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		if err := utils.ValidateFileUpload(fileHeader); err != nil {
			utils.Fail(c, http.StatusBadRequest, "topping.imageInvalid")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "topping.imageInvalid")
			return
		}
		defer file.Close()

		imageURL, err := h.Storage.UploadToppingImage(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "topping.imageUploadFailed")
			return
		}

		if topping.Image != "" {
			if path, err := utils.ExtractObjectPath(topping.Image); err == nil {
				if err := h.Storage.DeleteFile(path); err != nil {
					log.Printf("Failed to delete old topping image %s: %v", path, err)
				}
			}
		}
		topping.Image = imageURL
	}

	if err := h.DB.Save(&topping).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "topping.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, topping, "topping.updated")
}

func (h *ToppingHandler) SetToppingAvailability(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "topping.invalidRequest")
		return
	}

	var topping models.Topping
	if err := h.DB.Where("id = ?", id).First(&topping).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "topping.notFound")
		return
	}

	if err := h.DB.Model(&topping).Update("is_available", *req.IsAvailable).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "topping.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, topping, "topping.updated")
}

func (h *ToppingHandler) DeleteTopping(c *gin.Context) {
	id := c.Param("id")

	var topping models.Topping
	if err := h.DB.Where("id = ?", id).First(&topping).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "topping.notFound")
		return
	}

	if err := h.DB.Delete(&topping).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "topping.deleteFailed")
		return
	}

	utils.Respond(c, http.StatusOK, nil, "topping.deleted")
}
