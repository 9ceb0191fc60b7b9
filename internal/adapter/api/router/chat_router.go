package router

import (
	"github.com/labstack/echo/v4"

	"pairchat/internal/adapter/api/handler"
	"pairchat/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	// Chat management
	chatGroup.POST("", chatHandler.CreateChat)     // POST /v1/chats - Open (or reuse) a direct chat
	chatGroup.GET("", chatHandler.GetUserChats)    // GET /v1/chats - Caller's chats, most recently active first
	chatGroup.GET("/:id", chatHandler.GetChatByID) // GET /v1/chats/:id - Get specific chat

	// Message management
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)    // POST /v1/chats/:id/messages - Send message
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages) // GET /v1/chats/:id/messages - Get chat messages
	chatGroup.PUT("/:id/read", chatHandler.MarkMessageRead)     // PUT /v1/chats/:id/read - Mark a message read

	// Typing indicator
	chatGroup.PUT("/:id/typing", chatHandler.SetTyping) // PUT /v1/chats/:id/typing - Set own typing flag
}
