package routes

import (
	"github.com/nobhad/no-bhad-codes-sub012/internal/handlers"
	"github.com/nobhad/no-bhad-codes-sub012/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes registers all authenticated API routes.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		apiGroup.GET("/me", handlers.MeHandler)

		// --- CLIENTS ---
		clients := apiGroup.Group("/clients")
		clients.Use(middleware.PermissionMiddleware("clients_view"))
		{
			clients.GET("", handlers.ListClientsHandler)
			clients.POST("", middleware.PermissionMiddleware("clients_edit"), handlers.CreateClientHandler)
			clients.GET("/:id", handlers.GetClientHandler)
			clients.PUT("/:id", middleware.PermissionMiddleware("clients_edit"), handlers.UpdateClientHandler)
			clients.DELETE("/:id", middleware.PermissionMiddleware("clients_delete"), handlers.DeleteClientHandler)
		}

		// --- PROJECTS ---
		projects := apiGroup.Group("/projects")
		projects.Use(middleware.PermissionMiddleware("projects_view"))
		{
			projects.GET("", handlers.ListProjectsHandler)
			projects.POST("", middleware.PermissionMiddleware("projects_edit"), handlers.CreateProjectHandler)
			projects.GET("/:id", handlers.GetProjectHandler)
			projects.PUT("/:id", middleware.PermissionMiddleware("projects_edit"), handlers.UpdateProjectHandler)
			projects.DELETE("/:id", middleware.PermissionMiddleware("projects_delete"), handlers.DeleteProjectHandler)
			projects.POST("/:id/payment-schedule", handlers.PreviewPaymentScheduleHandler)
		}

		// --- CONTRACT TEMPLATES ---
		templates := apiGroup.Group("/contract-templates")
		templates.Use(middleware.PermissionMiddleware("contracts_edit"))
		{
			templates.GET("", handlers.ListContractTemplatesHandler)
			templates.POST("", handlers.CreateContractTemplateHandler)
			templates.GET("/:id", handlers.GetContractTemplateHandler)
			templates.PUT("/:id", handlers.UpdateContractTemplateHandler)
			templates.DELETE("/:id", handlers.DeactivateContractTemplateHandler)
		}

		// --- CONTRACTS & SIGNATURES ---
		contracts := apiGroup.Group("/contracts")
		contracts.Use(middleware.PermissionMiddleware("contracts_view"))
		{
			contracts.GET("", handlers.ListContractsHandler)
			contracts.POST("", middleware.PermissionMiddleware("contracts_edit"), handlers.CreateContractHandler)
			contracts.GET("/:id", handlers.GetContractHandler)
			contracts.PUT("/:id/body", middleware.PermissionMiddleware("contracts_edit"), handlers.UpdateContractBodyHandler)
			contracts.POST("/:id/cancel", middleware.PermissionMiddleware("contracts_edit"), handlers.CancelContractHandler)
		}

		// Per-project signing surface. No blanket gate here: the PDF route
		// must stay reachable for client-role users, whose project ownership
		// is checked inside the handler.
		projectContracts := apiGroup.Group("/projects/:id")
		{
			projectContracts.GET("/contracts", middleware.PermissionMiddleware("contracts_view"), handlers.ListProjectContractsHandler)
			projectContracts.POST("/request-signature", middleware.PermissionMiddleware("contracts_sign"), handlers.RequestSignatureHandler)
			projectContracts.POST("/countersign", middleware.PermissionMiddleware("contracts_sign"), handlers.CountersignContractHandler)
			projectContracts.GET("/signature-status", middleware.PermissionMiddleware("contracts_view"), handlers.SignatureStatusHandler)
			projectContracts.GET("/pdf", handlers.ContractPDFHandler)
		}

		// --- INVOICES ---
		invoices := apiGroup.Group("/invoices")
		invoices.Use(middleware.PermissionMiddleware("invoices_view"))
		{
			invoices.GET("", handlers.ListInvoicesHandler)
			invoices.POST("", middleware.PermissionMiddleware("invoices_edit"), handlers.CreateInvoiceHandler)
			invoices.GET("/export", handlers.ExportInvoicesHandler)
			invoices.GET("/:id", handlers.GetInvoiceHandler)
			invoices.PUT("/:id", middleware.PermissionMiddleware("invoices_edit"), handlers.UpdateInvoiceHandler)
			invoices.POST("/:id/mark-paid", middleware.PermissionMiddleware("invoices_edit"), handlers.MarkInvoicePaidHandler)
			invoices.DELETE("/:id", middleware.PermissionMiddleware("invoices_delete"), handlers.DeleteInvoiceHandler)
		}

		// --- PROPOSALS ---
		proposals := apiGroup.Group("/proposals")
		proposals.Use(middleware.PermissionMiddleware("proposals_view"))
		{
			proposals.GET("", handlers.ListProposalsHandler)
			proposals.POST("", middleware.PermissionMiddleware("proposals_edit"), handlers.CreateProposalHandler)
			proposals.POST("/draft", middleware.PermissionMiddleware("proposals_edit"), handlers.DraftProposalHandler)
			proposals.GET("/:id", handlers.GetProposalHandler)
			proposals.PUT("/:id", middleware.PermissionMiddleware("proposals_edit"), handlers.UpdateProposalHandler)
			proposals.DELETE("/:id", middleware.PermissionMiddleware("proposals_delete"), handlers.DeleteProposalHandler)
		}

		// --- USERS ---
		users := apiGroup.Group("/users")
		users.Use(middleware.PermissionMiddleware("users_view"))
		{
			users.GET("", handlers.ListUsersHandler)
			users.POST("", middleware.PermissionMiddleware("users_edit"), handlers.CreateUserHandler)
			users.GET("/:id", handlers.GetUserHandler)
			users.PUT("/:id", middleware.PermissionMiddleware("users_edit"), handlers.UpdateUserHandler)
			users.DELETE("/:id", middleware.PermissionMiddleware("users_delete"), handlers.DeleteUserHandler)
		}
	}
}
