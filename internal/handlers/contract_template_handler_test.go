package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateTestRouter() *gin.Engine {
	r := gin.New()
	r.GET("/api/contract-templates", ListContractTemplatesHandler)
	r.POST("/api/contract-templates", CreateContractTemplateHandler)
	r.PUT("/api/contract-templates/:id", UpdateContractTemplateHandler)
	r.DELETE("/api/contract-templates/:id", DeactivateContractTemplateHandler)
	r.POST("/api/contracts", CreateContractHandler)
	return r
}

func TestCreateTemplateClearsPreviousDefault(t *testing.T) {
	db := setupTestDB(t)
	r := newTemplateTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/contract-templates", ContractTemplateInput{
		Name:      "Standard v1",
		Category:  models.TemplateCategoryStandard,
		Body:      "v1 body",
		IsDefault: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/contract-templates", ContractTemplateInput{
		Name:      "Standard v2",
		Category:  models.TemplateCategoryStandard,
		Body:      "v2 body",
		IsDefault: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var defaults []models.ContractTemplate
	require.NoError(t, db.Where("category = ? AND is_default = ?", models.TemplateCategoryStandard, true).
		Find(&defaults).Error)
	require.Len(t, defaults, 1)
	assert.Equal(t, "Standard v2", defaults[0].Name)

	picked, err := defaultTemplateForCategory(db, models.TemplateCategoryStandard)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, "Standard v2", picked.Name)
}

func TestCreateTemplateRejectsUnknownCategory(t *testing.T) {
	setupTestDB(t)
	r := newTemplateTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/contract-templates", ContractTemplateInput{
		Name:     "Mystery",
		Category: "mystery",
		Body:     "body",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeactivateTemplateKeepsRow(t *testing.T) {
	db := setupTestDB(t)
	r := newTemplateTestRouter()

	template := models.ContractTemplate{
		Name:      "NDA",
		Category:  models.TemplateCategoryNDA,
		Body:      "nda body",
		IsDefault: true,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&template).Error)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/contract-templates/%d", template.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.ContractTemplate
	require.NoError(t, db.First(&stored, template.ID).Error)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.IsDefault)

	picked, err := defaultTemplateForCategory(db, models.TemplateCategoryNDA)
	require.NoError(t, err)
	assert.Nil(t, picked)
}

func TestCreateContractFromCategoryDefault(t *testing.T) {
	db := setupTestDB(t)
	_, project, _ := createSigningFixture(t, db)
	r := newTemplateTestRouter()

	template := models.ContractTemplate{
		Name:         "Standard",
		Category:     models.TemplateCategoryStandard,
		Body:         "Agreement with {{client.name}} for {{project.name}}.",
		Placeholders: `["client.name","project.name"]`,
		IsDefault:    true,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&template).Error)

	w := doJSON(t, r, http.MethodPost, "/api/contracts", ContractInput{
		ProjectID: project.ID,
		Category:  models.TemplateCategoryStandard,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var contracts []models.Contract
	require.NoError(t, db.Where("template_id = ?", template.ID).Find(&contracts).Error)
	require.Len(t, contracts, 1)
	assert.Equal(t, "Agreement with Dana Reyes for Acme Website Redesign.", contracts[0].Body)
	assert.Contains(t, contracts[0].Bindings, "client.name")
	assert.Equal(t, models.ContractStatusDraft, contracts[0].Status)
}

func TestCreateContractRequiresTemplateOrBody(t *testing.T) {
	db := setupTestDB(t)
	_, project, _ := createSigningFixture(t, db)
	r := newTemplateTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/contracts", ContractInput{ProjectID: project.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/contracts", ContractInput{
		ProjectID: project.ID,
		Body:      "Freeform agreement text.",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
