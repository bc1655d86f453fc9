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

type ContractInput struct {
	ProjectID        uint       `json:"projectId" binding:"required"`
	TemplateID       *uint      `json:"templateId"`
	Category         string     `json:"category"`
	Body             string     `json:"body"`
	ParentContractID *uint      `json:"parentContractId"`
	RenewalDate      *time.Time `json:"renewalDate"`
	AutoRenew        bool       `json:"autoRenew"`
}

// ContractListRow joins a contract with its project and client for the
// operator contract list.
type ContractListRow struct {
	ContractID      uint       `json:"id"`
	Status          string     `json:"status"`
	ProjectID       uint       `json:"projectId"`
	ProjectName     string     `json:"projectName"`
	ClientName      string     `json:"clientName"`
	ClientCompany   string     `json:"clientCompany"`
	SignedAt        *time.Time `json:"signedAt"`
	CountersignedAt *time.Time `json:"countersignedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func ListContractsHandler(c *gin.Context) {
	var results []ContractListRow
	var totalRows int64

	baseQuery := config.DB.Table("contracts").
		Joins("JOIN projects ON projects.id = contracts.project_id").
		Joins("JOIN clients ON clients.id = contracts.client_id").
		Where("contracts.deleted_at IS NULL")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		baseQuery = baseQuery.Where(
			"LOWER(projects.name) LIKE ? OR LOWER(clients.name) LIKE ? OR LOWER(clients.company_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if status := c.Query("status"); status != "" {
		baseQuery = baseQuery.Where("contracts.status = ?", status)
	}

	if err := baseQuery.Model(&models.Contract{}).Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count contracts"})
		return
	}

	finalQuery := baseQuery.Select(`
		contracts.id as contract_id,
		contracts.status,
		contracts.project_id,
		projects.name as project_name,
		clients.name as client_name,
		clients.company_name as client_company,
		contracts.signed_at,
		contracts.countersigned_at,
		contracts.created_at
	`).
		Scopes(Paginate(c)).
		Order("contracts.created_at DESC")

	if err := finalQuery.Scan(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch contracts: " + err.Error()})
		return
	}

	if results == nil {
		results = make([]ContractListRow, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, results, totalRows))
}

// CreateContractHandler creates a contract for a project, either rendered
// from a template (explicit id, or the category default) or freeform. The
// body and the bindings snapshot are frozen at this point and never change
// afterwards.
func CreateContractHandler(c *gin.Context) {
	var input ContractInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract data: " + err.Error()})
		return
	}

	var project models.Project
	if err := config.DB.Preload("Client").First(&project, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if project.Client == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project has no client attached"})
		return
	}

	contract := models.Contract{
		ProjectID:        project.ID,
		ClientID:         project.ClientID,
		ParentContractID: input.ParentContractID,
		RenewalDate:      input.RenewalDate,
		AutoRenew:        input.AutoRenew,
		Status:           models.ContractStatusDraft,
	}

	var template *models.ContractTemplate
	switch {
	case input.TemplateID != nil && *input.TemplateID > 0:
		var t models.ContractTemplate
		if err := config.DB.First(&t, *input.TemplateID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract template not found"})
			return
		}
		if !t.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Contract template is deactivated"})
			return
		}
		template = &t
	case input.Category != "":
		t, err := defaultTemplateForCategory(config.DB, input.Category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not look up default template"})
			return
		}
		if t == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No default template for category " + input.Category})
			return
		}
		template = t
	}

	if template != nil {
		body, snapshot, err := renderContractFromTemplate(template, &project, project.Client)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render contract: " + err.Error()})
			return
		}
		contract.TemplateID = &template.ID
		contract.Body = body
		contract.Bindings = snapshot
	} else {
		if strings.TrimSpace(input.Body) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either a template or a contract body is required"})
			return
		}
		contract.Body = input.Body
	}

	if err := config.DB.Create(&contract).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, contract)
}

func GetContractHandler(c *gin.Context) {
	id := c.Param("id")
	var contract models.Contract
	if err := config.DB.Preload("Project").Preload("Client").First(&contract, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch contract"})
		return
	}
	c.JSON(http.StatusOK, contract)
}

// ListProjectContractsHandler returns all contracts on a project, newest
// first, including superseded ones.
func ListProjectContractsHandler(c *gin.Context) {
	projectID := c.Param("id")

	var contracts []models.Contract
	if err := config.DB.Where("project_id = ?", projectID).
		Order("created_at desc").Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch project contracts"})
		return
	}
	if contracts == nil {
		contracts = make([]models.Contract, 0)
	}
	c.JSON(http.StatusOK, contracts)
}

// UpdateContractBodyHandler edits the body of a draft contract. Once a
// signature has been requested the body is frozen.
func UpdateContractBodyHandler(c *gin.Context) {
	id := c.Param("id")
	var contract models.Contract
	if err := config.DB.First(&contract, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if contract.Status != models.ContractStatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft contracts can be edited"})
		return
	}

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract data: " + err.Error()})
		return
	}

	contract.Body = input.Body
	if err := config.DB.Save(&contract).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contract"})
		return
	}
	c.JSON(http.StatusOK, contract)
}

// CancelContractHandler moves a non-terminal contract to cancelled.
func CancelContractHandler(c *gin.Context) {
	id := c.Param("id")
	var contract models.Contract
	if err := config.DB.First(&contract, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if err := cancelContract(config.DB, &contract, getUserEmailFromContext(c)); err != nil {
		respondSignatureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract cancelled", "status": contract.Status})
}
