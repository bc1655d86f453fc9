package main

import (
	"log/slog"
	"os"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/internal/routes"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.ConnectDB()
	config.ConnectRedis()
	config.InitJWT()
	config.InitMailer()
	if err := config.InitGoogleServices(); err != nil {
		slog.Warn("Gemini client unavailable, proposal drafting disabled", "error", err)
	}

	err := config.DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Client{},
		&models.Project{},
		&models.ContractTemplate{},
		&models.Contract{},
		&models.SignatureLog{},
		&models.Invoice{},
		&models.PaymentForm{},
		&models.Installment{},
		&models.Proposal{},
	)
	if err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
