package router

import (
	"github.com/labstack/echo/v4"

	"pairchat/internal/adapter/api/handler"
	"pairchat/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	fileGroup := e.Group("/v1/files")
	fileGroup.Use(authMiddleware.Authenticate)

	fileGroup.POST("", fileHandler.Upload) // POST /v1/files - Upload, returns public URL
}
