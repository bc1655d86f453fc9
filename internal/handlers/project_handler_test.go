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

func newProjectTestRouter() *gin.Engine {
	r := gin.New()
	r.DELETE("/api/projects/:id", DeleteProjectHandler)
	return r
}

func TestDeleteProjectCascadesContracts(t *testing.T) {
	db := setupTestDB(t)
	_, project, contract := createSigningFixture(t, db)
	r := newProjectTestRouter()

	token, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)

	invoice := models.Invoice{InvoiceNumber: "INV-1-1", Amount: 2400, ProjectID: project.ID}
	require.NoError(t, db.Create(&invoice).Error)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The outstanding signing link must no longer resolve.
	_, err = findContractByToken(db, token)
	assert.ErrorIs(t, err, errInvalidLink)

	var count int64
	require.NoError(t, db.Model(&models.Contract{}).Where("project_id = ?", project.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&models.Invoice{}).Where("project_id = ?", project.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Soft-deleted, not gone: the rows survive for the audit trail.
	require.NoError(t, db.Unscoped().Model(&models.Contract{}).Where("project_id = ?", project.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteProjectNotFound(t *testing.T) {
	setupTestDB(t)
	r := newProjectTestRouter()

	w := doJSON(t, r, http.MethodDelete, "/api/projects/4242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
