package routes

import (
	"github.com/nobhad/no-bhad-codes-sub012/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the public authentication endpoints.
func RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/login", handlers.LoginHandler)
	r.GET("/logout", handlers.LogoutHandler)
}
