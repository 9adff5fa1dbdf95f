package router

import (
	"time"

	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Per-IP submission and signup limits
	commentLimiter := services.NewRateLimiter(5, time.Minute)
	registerLimiter := services.NewRateLimiter(3, 10*time.Minute)

	authHandler := handlers.NewAuthHandler(registerLimiter)
	postHandler := handlers.NewPostHandler()
	commentHandler := handlers.NewCommentHandler(commentLimiter)
	adminHandler := handlers.NewAdminHandler()

	api := r.Group("/api")

	// Public routes
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:slug", postHandler.Get)
	api.GET("/posts/:slug/comments", commentHandler.ListThreaded)
	api.POST("/posts/:slug/comments", commentHandler.Create)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
	}

	// Moderation routes
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/comments", adminHandler.ListComments)
		admin.GET("/comments/stats", adminHandler.Stats)
		admin.PUT("/comments/:cid/approve", adminHandler.Approve)
		admin.PUT("/comments/:cid/reject", adminHandler.Reject)

		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSettings)

		admin.POST("/posts", adminHandler.CreatePost)
	}
}
