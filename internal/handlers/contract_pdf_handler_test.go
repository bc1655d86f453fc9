package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeConverter stands in for Gotenberg and counts conversion requests.
func fakeConverter(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("GOTENBERG_URL", srv.URL)
	return srv, &hits
}

func fullySignedContract(t *testing.T, db *gorm.DB, contract *models.Contract) models.Contract {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Model(contract).Updates(map[string]interface{}{
		"status":             models.ContractStatusSigned,
		"signer_name":        "Dana Reyes",
		"signed_at":          now,
		"countersigner_name": "Nadia B.",
		"countersigned_at":   now,
	}).Error)
	return reloadContract(t, db, contract.ID)
}

func newPDFTestRouter() *gin.Engine {
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("email", "ops@studio.test")
		c.Set("roles", []string{"admin"})
		c.Next()
	})
	api.GET("/projects/:id/pdf", ContractPDFHandler)
	return r
}

func TestRenderContractHTMLWatermark(t *testing.T) {
	now := time.Now()

	unsigned := &models.Contract{Body: "Agreement text."}
	html, err := renderContractHTML(unsigned)
	require.NoError(t, err)
	assert.Contains(t, html, "DRAFT - UNSIGNED")

	signed := &models.Contract{
		Body:           "Agreement text.",
		SignerName:     "Dana Reyes",
		SignatureImage: "data:image/png;base64,AAA=",
		SignedAt:       &now,
	}
	html, err = renderContractHTML(signed)
	require.NoError(t, err)
	assert.NotContains(t, html, "DRAFT - UNSIGNED")
	assert.Contains(t, html, "Dana Reyes")
	assert.Contains(t, html, "data:image/png;base64,AAA=")
}

func TestMaterializeSignedPDFWritesArtifactOnce(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	_, hits := fakeConverter(t)
	t.Setenv("CONTRACTS_DIR", t.TempDir())

	stored := fullySignedContract(t, db, contract)

	path, err := materializeSignedPDF(db, &stored)
	require.NoError(t, err)
	assert.True(t, fileExists(path))
	assert.Equal(t, path, reloadContract(t, db, contract.ID).SignedPDFPath)
	assert.EqualValues(t, 1, hits.Load())

	// The populated path short-circuits: no second conversion.
	again, err := materializeSignedPDF(db, &stored)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.EqualValues(t, 1, hits.Load())
}

func TestMaterializeSignedPDFRequiresBothSignatures(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	_, hits := fakeConverter(t)

	now := time.Now()
	require.NoError(t, db.Model(contract).Updates(map[string]interface{}{
		"status":    models.ContractStatusSigned,
		"signed_at": now,
	}).Error)
	stored := reloadContract(t, db, contract.ID)

	_, err := materializeSignedPDF(db, &stored)
	require.Error(t, err)
	assert.EqualValues(t, 0, hits.Load())
	assert.Empty(t, reloadContract(t, db, contract.ID).SignedPDFPath)
}

func TestMaterializeSignedPDFLosingRaceServesWinner(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	_, _ = fakeConverter(t)
	dir := t.TempDir()
	t.Setenv("CONTRACTS_DIR", dir)

	stored := fullySignedContract(t, db, contract)

	// A concurrent materialization already claimed the path column.
	winnerPath := filepath.Join(t.TempDir(), "winner.pdf")
	require.NoError(t, os.WriteFile(winnerPath, []byte("%PDF-1.4 winner"), 0o644))
	require.NoError(t, db.Model(&models.Contract{}).Where("id = ?", contract.ID).
		Update("signed_pdf_path", winnerPath).Error)

	// The loser still holds a pre-race snapshot with no path.
	loser := stored
	loser.SignedPDFPath = ""

	path, err := materializeSignedPDF(db, &loser)
	require.NoError(t, err)
	assert.Equal(t, winnerPath, path)
	assert.Equal(t, winnerPath, loser.SignedPDFPath)
	assert.Equal(t, winnerPath, reloadContract(t, db, contract.ID).SignedPDFPath)

	// The loser deleted its own artifact.
	entries, err := os.ReadDir(filepath.Join(dir, fmt.Sprintf("project-%d", contract.ProjectID)))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestContractPDFServesExistingArtifact(t *testing.T) {
	db := setupTestDB(t)
	_, project, contract := createSigningFixture(t, db)
	_, hits := fakeConverter(t)
	r := newPDFTestRouter()

	stored := fullySignedContract(t, db, contract)

	artifact := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(artifact, []byte("%PDF-1.4 artifact"), 0o644))
	require.NoError(t, db.Model(&stored).Update("signed_pdf_path", artifact).Error)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pdf", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 artifact", w.Body.String())
	// The immutable artifact is served as-is; the converter is never asked.
	assert.EqualValues(t, 0, hits.Load())
}

func TestContractPDFLazilyMaterializes(t *testing.T) {
	db := setupTestDB(t)
	_, project, contract := createSigningFixture(t, db)
	_, hits := fakeConverter(t)
	t.Setenv("CONTRACTS_DIR", t.TempDir())
	r := newPDFTestRouter()

	fullySignedContract(t, db, contract)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pdf", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())
	assert.EqualValues(t, 1, hits.Load())

	// The fetch filled in the artifact path for every later request.
	stored := reloadContract(t, db, contract.ID)
	assert.NotEmpty(t, stored.SignedPDFPath)
	assert.True(t, fileExists(stored.SignedPDFPath))
}
