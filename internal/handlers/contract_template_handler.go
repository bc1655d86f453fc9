package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ContractTemplateInput struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	Body         string   `json:"body" binding:"required"`
	Placeholders []string `json:"placeholders"`
	IsDefault    bool     `json:"isDefault"`
}

// ListContractTemplatesHandler returns contract templates, active ones by
// default; pass ?all=true to include deactivated templates.
func ListContractTemplatesHandler(c *gin.Context) {
	query := config.DB.Order("category, name")
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var templates []models.ContractTemplate
	if err := query.Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func GetContractTemplateHandler(c *gin.Context) {
	id := c.Param("id")
	var template models.ContractTemplate
	if err := config.DB.First(&template, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, template)
}

// CreateContractTemplateHandler creates a template. When the new template
// is flagged as the category default, the previous default is cleared in
// the same transaction so the "one default per category" invariant cannot
// be observed broken.
func CreateContractTemplateHandler(c *gin.Context) {
	var input ContractTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template data: " + err.Error()})
		return
	}
	if !models.ValidTemplateCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown template category: " + input.Category})
		return
	}

	placeholders, _ := json.Marshal(input.Placeholders)
	template := models.ContractTemplate{
		Name:         input.Name,
		Category:     input.Category,
		Body:         input.Body,
		Placeholders: string(placeholders),
		IsDefault:    input.IsDefault,
		IsActive:     true,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault {
			if err := clearCategoryDefault(tx, input.Category); err != nil {
				return err
			}
		}
		return tx.Create(&template).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}
	c.JSON(http.StatusCreated, template)
}

func UpdateContractTemplateHandler(c *gin.Context) {
	id := c.Param("id")
	var template models.ContractTemplate
	if err := config.DB.First(&template, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	var input ContractTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template data: " + err.Error()})
		return
	}
	if !models.ValidTemplateCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown template category: " + input.Category})
		return
	}

	placeholders, _ := json.Marshal(input.Placeholders)
	template.Name = input.Name
	template.Category = input.Category
	template.Body = input.Body
	template.Placeholders = string(placeholders)

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault && !template.IsDefault {
			if err := clearCategoryDefault(tx, input.Category); err != nil {
				return err
			}
		}
		template.IsDefault = input.IsDefault
		return tx.Save(&template).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeactivateContractTemplateHandler soft-deletes a template. Templates are
// never hard-deleted: existing contracts keep referencing them.
func DeactivateContractTemplateHandler(c *gin.Context) {
	id := c.Param("id")
	var template models.ContractTemplate
	if err := config.DB.First(&template, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	template.IsActive = false
	template.IsDefault = false
	if err := config.DB.Save(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deactivated"})
}

func clearCategoryDefault(tx *gorm.DB, category string) error {
	return tx.Model(&models.ContractTemplate{}).
		Where("category = ? AND is_default = ?", category, true).
		Update("is_default", false).Error
}

// defaultTemplateForCategory returns the active default template for a
// category, or nil when the category has none.
func defaultTemplateForCategory(db *gorm.DB, category string) (*models.ContractTemplate, error) {
	var template models.ContractTemplate
	err := db.Where("category = ? AND is_default = ? AND is_active = ?", category, true, true).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}
