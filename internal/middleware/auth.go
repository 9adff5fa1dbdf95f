package middleware

import (
	"net/http"

	"inkwell/internal/common"
	"inkwell/internal/db"
	"inkwell/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoadUser retrieves user from session and sets it into the context.
// Anonymous requests pass through without a user.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			result := db.DB.First(&user, userID)
			if result.Error == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the session user, or nil for anonymous callers.
func CurrentUser(c *gin.Context) *models.User {
	if u, exists := c.Get(CheckUserKey); exists {
		return u.(*models.User)
	}
	return nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, common.ErrUnauthorized.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired gates the moderation surface. Anonymous callers get 401,
// authenticated non-admins 403; neither reaches the handler, so no data is
// read or written on their behalf.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, common.ErrUnauthorized.Error())
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			common.ErrorResponse(c, http.StatusForbidden, common.ErrForbidden.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
