package router

import (
	"github.com/labstack/echo/v4"

	"pairchat/internal/adapter/api/handler"
	"pairchat/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	userGroup := e.Group("/v1/users")
	userGroup.Use(authMiddleware.Authenticate)

	userGroup.GET("", userHandler.ListUsers)           // GET /v1/users - List directory
	userGroup.GET("/search", userHandler.SearchUsers)  // GET /v1/users/search?q= - Search by display name
	userGroup.GET("/:id", userHandler.GetUser)         // GET /v1/users/:id - Get one user
	userGroup.POST("", userHandler.AddUser)            // POST /v1/users - Add directory entry
	userGroup.PUT("/me", userHandler.UpdateProfile)    // PUT /v1/users/me - Update own profile
	userGroup.POST("/me/avatar", userHandler.UploadAvatar) // POST /v1/users/me/avatar - Upload avatar
}
