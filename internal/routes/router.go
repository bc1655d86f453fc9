package routes

import (
	"github.com/nobhad/no-bhad-codes-sub012/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every route of the application.
func SetupRoutes(r *gin.Engine) {
	// Public routes: login plus the anonymous signing surface, where the
	// signing token itself is the authorization credential.
	RegisterAuthRoutes(r)
	RegisterPublicSigningRoutes(r)

	// Everything else requires an authenticated user.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
