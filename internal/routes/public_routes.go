package routes

import (
	"github.com/nobhad/no-bhad-codes-sub012/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterPublicSigningRoutes registers the anonymous contract signing
// surface. No session auth: possession of a valid signing token is the
// entire authorization decision.
func RegisterPublicSigningRoutes(r *gin.Engine) {
	sign := r.Group("/sign")
	{
		sign.GET("/contracts/:token", handlers.ViewContractByTokenHandler)
		sign.POST("/contracts/:token", handlers.SignContractByTokenHandler)
		sign.GET("/contracts/:token/pdf", handlers.ContractPDFByTokenHandler)
	}
}
