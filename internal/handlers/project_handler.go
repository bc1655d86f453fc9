package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectInput struct {
	ClientID    uint       `json:"clientId" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Price       float64    `json:"price"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
}

// ProjectListRow joins projects with clients and the legacy contract
// status mirror for the operator dashboard.
type ProjectListRow struct {
	ProjectID      uint    `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Price          float64 `json:"price"`
	ContractStatus string  `json:"contractStatus"`
	ClientID       uint    `json:"clientId"`
	ClientName     string  `json:"clientName"`
	ClientCompany  string  `json:"clientCompany"`
}

func ListProjectsHandler(c *gin.Context) {
	var results []ProjectListRow
	var totalRows int64

	baseQuery := config.DB.Table("projects").
		Joins("JOIN clients ON clients.id = projects.client_id").
		Where("projects.deleted_at IS NULL AND clients.deleted_at IS NULL")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		baseQuery = baseQuery.Where(
			"LOWER(projects.name) LIKE ? OR LOWER(clients.name) LIKE ? OR LOWER(clients.company_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if status := c.Query("status"); status != "" {
		baseQuery = baseQuery.Where("projects.status = ?", status)
	}

	if err := baseQuery.Model(&models.Project{}).Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count projects"})
		return
	}

	finalQuery := baseQuery.Select(`
		projects.id as project_id,
		projects.name,
		projects.status,
		projects.price,
		projects.contract_status,
		clients.id as client_id,
		clients.name as client_name,
		clients.company_name as client_company
	`).
		Scopes(Paginate(c)).
		Order("projects.created_at DESC")

	if err := finalQuery.Scan(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch projects: " + err.Error()})
		return
	}

	if results == nil {
		results = make([]ProjectListRow, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, results, totalRows))
}

func CreateProjectHandler(c *gin.Context) {
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project data: " + err.Error()})
		return
	}

	var client models.Client
	if err := config.DB.First(&client, input.ClientID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	managerID, err := getUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not resolve current user"})
		return
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusLead
	}

	project := models.Project{
		ClientID:       client.ID,
		ManagerID:      managerID,
		Name:           input.Name,
		Description:    input.Description,
		Status:         status,
		Price:          input.Price,
		StartDate:      input.StartDate,
		DueDate:        input.DueDate,
		ContractStatus: "none",
	}
	if err := config.DB.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}
	c.JSON(http.StatusCreated, project)
}

func GetProjectHandler(c *gin.Context) {
	id := c.Param("id")
	var project models.Project
	if err := config.DB.Preload("Client").Preload("Manager").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch project"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func UpdateProjectHandler(c *gin.Context) {
	id := c.Param("id")
	var project models.Project
	if err := config.DB.First(&project, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project data: " + err.Error()})
		return
	}

	project.Name = input.Name
	project.Description = input.Description
	project.Price = input.Price
	project.StartDate = input.StartDate
	project.DueDate = input.DueDate
	if input.Status != "" {
		project.Status = input.Status
	}

	if err := config.DB.Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}
	c.JSON(http.StatusOK, project)
}

func DeleteProjectHandler(c *gin.Context) {
	id := c.Param("id")
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Invoice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		// Contracts go too, or an outstanding signing link would keep
		// resolving against a project that no longer exists.
		if err := tx.Where("project_id = ?", id).Delete(&models.Contract{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
