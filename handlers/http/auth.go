package httpHandler

import (
	"errors"
	"log"
	"net/http"

	"sprinklex-server/middlewares"
	"sprinklex-server/repositories"
	"sprinklex-server/usecases"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *usecases.AccountsUseCase
}

func NewAuthHandler(accounts *usecases.AccountsUseCase) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

func accountErrorStatus(err error) int {
	var ve *usecases.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, usecases.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeAccountError(c *gin.Context, err error) {
	status := accountErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("account request failed: %v", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req usecases.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	session, err := h.accounts.Register(req)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	session, err := h.accounts.Login(req.EmailOrPhone, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(middlewares.UserID(c)); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetProfile handles GET /api/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	profile, err := h.accounts.GetProfile(middlewares.UserID(c))
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile handles PUT /api/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req usecases.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	profile, err := h.accounts.UpdateProfile(middlewares.UserID(c), req)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}
