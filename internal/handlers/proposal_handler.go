package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"gorm.io/gorm"
)

type ProposalInput struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body"`
	Status    string `json:"status"`
}

func ListProposalsHandler(c *gin.Context) {
	var proposals []models.Proposal
	var totalRows int64

	query := config.DB.Model(&models.Proposal{}).Preload("Project")
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count proposals"})
		return
	}
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&proposals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch proposals"})
		return
	}

	if proposals == nil {
		proposals = make([]models.Proposal, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, proposals, totalRows))
}

func CreateProposalHandler(c *gin.Context) {
	var input ProposalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal data: " + err.Error()})
		return
	}

	if err := config.DB.First(&models.Project{}, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	status := input.Status
	if status == "" {
		status = models.ProposalStatusDraft
	}

	proposal := models.Proposal{
		ProjectID: input.ProjectID,
		Title:     input.Title,
		Body:      input.Body,
		Status:    status,
	}
	if err := config.DB.Create(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal"})
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func GetProposalHandler(c *gin.Context) {
	id := c.Param("id")
	var proposal models.Proposal
	if err := config.DB.Preload("Project").First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch proposal"})
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func UpdateProposalHandler(c *gin.Context) {
	id := c.Param("id")
	var proposal models.Proposal
	if err := config.DB.First(&proposal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}

	var input ProposalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal data: " + err.Error()})
		return
	}

	proposal.Title = input.Title
	proposal.Body = input.Body
	if input.Status != "" {
		proposal.Status = input.Status
	}

	if err := config.DB.Save(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update proposal"})
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func DeleteProposalHandler(c *gin.Context) {
	id := c.Param("id")
	result := config.DB.Delete(&models.Proposal{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete proposal"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Proposal deleted"})
}

// DraftProposalHandler generates proposal body text from a short brief via
// Gemini. The result is a draft for the operator to edit, never persisted
// automatically.
func DraftProposalHandler(c *gin.Context) {
	if config.GeminiClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI drafting is not configured"})
		return
	}

	var input struct {
		ProjectID uint   `json:"projectId" binding:"required"`
		Brief     string `json:"brief" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A project and a brief are required"})
		return
	}

	var project models.Project
	if err := config.DB.Preload("Client").First(&project, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	clientName := ""
	if project.Client != nil {
		clientName = project.Client.Name
	}

	prompt := fmt.Sprintf(
		"You write concise, professional project proposals for %s, a web development agency. "+
			"Write the body of a proposal for the project %q for client %q. "+
			"Cover scope, deliverables and timeline based on this brief, and keep it under 400 words. "+
			"Do not invent prices. Brief: %q",
		businessName(), project.Name, clientName, input.Brief)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	resp, err := config.GeminiClient.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Draft generation failed"})
		return
	}

	var draft string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			draft = string(textPart)
		}
	}
	if draft == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Draft generation returned no text"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}
