package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ClientInput struct {
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func ListClientsHandler(c *gin.Context) {
	var clients []models.Client
	var totalRows int64

	query := config.DB.Model(&models.Client{})
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count clients"})
		return
	}
	if err := query.Scopes(Paginate(c)).Order("name").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch clients"})
		return
	}

	if clients == nil {
		clients = make([]models.Client, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, clients, totalRows))
}

func CreateClientHandler(c *gin.Context) {
	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client data: " + err.Error()})
		return
	}

	client := models.Client{
		Name:        input.Name,
		CompanyName: input.CompanyName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		Notes:       input.Notes,
	}
	if err := config.DB.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}
	c.JSON(http.StatusCreated, client)
}

func GetClientHandler(c *gin.Context) {
	id := c.Param("id")
	var client models.Client
	if err := config.DB.Preload("Projects").First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch client"})
		return
	}
	c.JSON(http.StatusOK, client)
}

func UpdateClientHandler(c *gin.Context) {
	id := c.Param("id")
	var client models.Client
	if err := config.DB.First(&client, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client data: " + err.Error()})
		return
	}

	client.Name = input.Name
	client.CompanyName = input.CompanyName
	client.Email = input.Email
	client.Phone = input.Phone
	client.Address = input.Address
	client.Notes = input.Notes

	if err := config.DB.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update client"})
		return
	}
	c.JSON(http.StatusOK, client)
}

func DeleteClientHandler(c *gin.Context) {
	id := c.Param("id")
	result := config.DB.Delete(&models.Client{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete client"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
