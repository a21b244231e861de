package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"trasua-backend/config"
	"trasua-backend/models"
	"trasua-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"phone": user.Phone,
	}
}

func (h *AuthHandler) issueTokens(user models.User) (string, string, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}

	rt := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := h.DB.Create(&rt).Error; err != nil {
		return "", "", err
	}

	return token, refreshToken, nil
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.Fail(c, http.StatusConflict, "auth.emailTaken")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.registerFailed")
		return
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     "customer",
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.registerFailed")
		return
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.registerFailed")
		return
	}

	utils.SendWelcomeEmail(user.Email, user.Name)

	utils.Respond(c, http.StatusCreated, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"user":          userPayload(user),
	}, "auth.registered")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusUnauthorized, "auth.invalidCredentials")
		return
	}

	if user.IsBlocked {
		utils.Fail(c, http.StatusForbidden, "auth.accountBlocked")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.Fail(c, http.StatusUnauthorized, "auth.invalidCredentials")
		return
	}

	token, refreshToken, err := h.issueTokens(user)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.loginFailed")
		return
	}

	utils.Respond(c, http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"user":          userPayload(user),
	}, "auth.loggedIn")
}

// Refresh exchanges a stored, unexpired refresh token for a new access token.
// The old refresh token stays valid until its own expiry; the client keeps
// using it for subsequent silent renewals.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "auth.tokenInvalid")
		return
	}

	var stored models.RefreshToken
	if err := h.DB.Where("token = ? AND revoked_at IS NULL", req.RefreshToken).First(&stored).Error; err != nil {
		utils.Fail(c, http.StatusUnauthorized, "auth.tokenInvalid")
		return
	}
	if time.Now().After(stored.ExpiresAt) {
		utils.Fail(c, http.StatusUnauthorized, "auth.tokenExpired")
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusUnauthorized, "auth.tokenInvalid")
		return
	}
	if user.IsBlocked {
		utils.Fail(c, http.StatusForbidden, "auth.accountBlocked")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.refreshFailed")
		return
	}

	utils.Respond(c, http.StatusOK, gin.H{"token": token}, "auth.refreshed")
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "auth.userNotFound")
		return
	}

	utils.Respond(c, http.StatusOK, userPayload(user), "auth.profileFetched")
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Fail(c, http.StatusUnauthorized, "auth.unauthorized")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "auth.userNotFound")
		return
	}

	user.Name = req.Name
	user.Phone = req.Phone
	if err := h.DB.Save(&user).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, userPayload(user), "auth.profileUpdated")
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Don't reveal whether the address exists
		utils.Respond(c, http.StatusOK, nil, "auth.resetEmailSent")
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.resetFailed")
		return
	}
	token := hex.EncodeToString(raw)

	prt := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := h.DB.Create(&prt).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.resetFailed")
		return
	}

	resetLink := config.GetEnv("STOREFRONT_URL", "http://localhost:3000") + "/reset-password?token=" + token
	utils.SendPasswordResetEmail(user.Email, user.Name, resetLink)

	utils.Respond(c, http.StatusOK, nil, "auth.resetEmailSent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var prt models.PasswordResetToken
	if err := h.DB.Where("token = ? AND used_at IS NULL", req.Token).First(&prt).Error; err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.resetTokenInvalid")
		return
	}
	if time.Now().After(prt.ExpiresAt) {
		utils.Fail(c, http.StatusBadRequest, "auth.resetTokenExpired")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.resetFailed")
		return
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", prt.UserID).
		Update("password", string(hashedPassword)).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.resetFailed")
		return
	}

	now := time.Now()
	h.DB.Model(&prt).Update("used_at", &now)

	utils.Respond(c, http.StatusOK, nil, "auth.passwordReset")
}

// ListCustomers returns customer accounts for the admin dashboard.
func (h *AuthHandler) ListCustomers(c *gin.Context) {
	var users []models.User
	query := h.DB.Where("role = ?", "customer")

	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(email) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?)",
			"%"+search+"%", "%"+search+"%")
	}

	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "customer.fetchFailed")
		return
	}

	utils.RespondList(c, http.StatusOK, users, int64(len(users)), "customer.fetched")
}

// SetCustomerBlocked blocks or unblocks a customer account.
func (h *AuthHandler) SetCustomerBlocked(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		IsBlocked *bool `json:"is_blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var user models.User
	if err := h.DB.Where("id = ? AND role = ?", id, "customer").First(&user).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, "auth.userNotFound")
		return
	}

	if err := h.DB.Model(&user).Update("is_blocked", *req.IsBlocked).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.updateFailed")
		return
	}

	utils.Respond(c, http.StatusOK, userPayload(user), "customer.updated")
}

// CreateAdmin creates another admin account. Only reachable behind the admin
// middleware.
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, "auth.invalidRequest")
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.Fail(c, http.StatusConflict, "auth.emailTaken")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.registerFailed")
		return
	}

	admin := models.User{
		ID:       uuid.New(),
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Role:     "admin",
	}

	if err := h.DB.Create(&admin).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, "auth.registerFailed")
		return
	}

	utils.Respond(c, http.StatusCreated, userPayload(admin), "auth.adminCreated")
}
