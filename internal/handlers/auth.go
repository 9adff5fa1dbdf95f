package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inkwell/internal/common"
	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	limiter *services.RateLimiter
}

func NewAuthHandler(limiter *services.RateLimiter) *AuthHandler {
	return &AuthHandler{limiter: limiter}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	if !h.limiter.Allow(c.ClientIP()) {
		common.ErrorResponse(c, http.StatusTooManyRequests, common.ErrRateLimited.Error())
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error())
		return
	}

	// Username is the local part of the email
	parts := strings.Split(req.Email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid email address")
		return
	}
	username := parts[0]

	if len(req.Password) < 6 {
		common.ErrorResponse(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Username: username,
		Email:    req.Email,
		Password: hash,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		common.ErrorResponse(c, http.StatusConflict, common.ErrUserAlreadyExists.Error())
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusCreated, common.APIResponse{Data: user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.ErrInvalidInput.Error())
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.ErrorResponse(c, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
		} else {
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to load user")
		}
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		common.ErrorResponse(c, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	common.SuccessResponse(c, user, nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	common.SuccessResponse(c, gin.H{"logged_out": true}, nil)
}

// Me returns the session user, 401 for anonymous callers.
// Me is mounted behind AuthRequired, so the user is always present here.
func (h *AuthHandler) Me(c *gin.Context) {
	common.SuccessResponse(c, middleware.CurrentUser(c), nil)
}
