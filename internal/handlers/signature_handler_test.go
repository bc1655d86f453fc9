package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newSigningTestRouter wires the public signing surface plus the operator
// endpoints, with a stub identity in place of the auth middleware.
func newSigningTestRouter() *gin.Engine {
	r := gin.New()

	r.GET("/sign/contracts/:token", ViewContractByTokenHandler)
	r.POST("/sign/contracts/:token", SignContractByTokenHandler)

	api := r.Group("/api", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("email", "ops@studio.test")
		c.Set("roles", []string{"admin"})
		c.Next()
	})
	api.POST("/projects/:id/request-signature", RequestSignatureHandler)
	api.POST("/projects/:id/countersign", CountersignContractHandler)
	api.GET("/projects/:id/signature-status", SignatureStatusHandler)
	api.POST("/contracts", CreateContractHandler)
	api.POST("/contracts/:id/cancel", CancelContractHandler)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func storedToken(t *testing.T, db *gorm.DB, contractID uint) string {
	t.Helper()
	stored := reloadContract(t, db, contractID)
	require.NotNil(t, stored.SignatureToken)
	return *stored.SignatureToken
}

func TestSigningFlowEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	_, project, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	// Operator requests a signature.
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/request-signature", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Contains(t, resp["signingUrl"], "/sign/contracts/")
	token := storedToken(t, db, contract.ID)

	// Client opens the link: viewed, and the projection never leaks the body.
	w = doJSON(t, r, http.MethodGet, "/sign/contracts/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeBody(t, w)
	assert.Equal(t, models.ContractStatusViewed, view["status"])
	assert.Equal(t, "Acme Website Redesign", view["projectName"])
	assert.NotContains(t, view, "body")
	assert.NotContains(t, w.Body.String(), contract.Body)

	// Client signs.
	w = doJSON(t, r, http.MethodPost, "/sign/contracts/"+token, SignContractInput{
		SignerName:     "Dana Reyes",
		SignatureImage: "data:image/png;base64,AAA=",
		AgreedToTerms:  true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signed := decodeBody(t, w)
	assert.Equal(t, models.ContractStatusSigned, signed["status"])

	// Operator countersigns.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/countersign", project.ID), CountersignInput{
		SignerName:     "Nadia B.",
		SignatureImage: "data:image/png;base64,CCC=",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := reloadContract(t, db, contract.ID)
	assert.Equal(t, models.ContractStatusSigned, stored.Status)
	assert.Equal(t, "Dana Reyes", stored.SignerName)
	assert.Equal(t, "Nadia B.", stored.CountersignerName)
	assert.Equal(t, "ops@studio.test", stored.CountersignerEmail)
	assert.Nil(t, stored.SignatureToken)

	// The status endpoint exposes the full trail.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/signature-status", project.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody(t, w)
	assert.Equal(t, models.ContractStatusSigned, status["status"])
	trail, ok := status["log"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(trail), 4) // requested, viewed, signed, countersigned
}

func TestRequestSignatureWithoutContract(t *testing.T) {
	db := setupTestDB(t)
	client := models.Client{Name: "Empty", Email: "empty@acme.test"}
	require.NoError(t, db.Create(&client).Error)
	project := models.Project{Name: "No Contract Yet", ClientID: client.ID}
	require.NoError(t, db.Create(&project).Error)

	r := newSigningTestRouter()
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/request-signature", project.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not-found", decodeBody(t, w)["code"])
}

func TestRequestSignatureWithoutClientEmail(t *testing.T) {
	db := setupTestDB(t)
	client, project, _ := createSigningFixture(t, db)
	require.NoError(t, db.Model(client).Update("email", "").Error)

	r := newSigningTestRouter()
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/request-signature", project.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "signer-email-required", decodeBody(t, w)["code"])
}

func TestViewWithUnknownToken(t *testing.T) {
	setupTestDB(t)
	r := newSigningTestRouter()

	w := doJSON(t, r, http.MethodGet, "/sign/contracts/deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "invalid-link", decodeBody(t, w)["code"])
}

func TestViewWithExpiredTokenReturnsGone(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)
	token := storedToken(t, db, contract.ID)
	require.NoError(t, db.Model(&models.Contract{}).Where("id = ?", contract.ID).
		Update("signature_expires_at", time.Now().Add(-time.Hour)).Error)

	w := doJSON(t, r, http.MethodGet, "/sign/contracts/"+token, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "expired-link", decodeBody(t, w)["code"])
}

func TestSignWithoutAcceptingTerms(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)
	token := storedToken(t, db, contract.ID)

	w := doJSON(t, r, http.MethodPost, "/sign/contracts/"+token, SignContractInput{
		SignerName:     "Dana Reyes",
		SignatureImage: "data:image/png;base64,AAA=",
		AgreedToTerms:  false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "terms-not-accepted", decodeBody(t, w)["code"])
	assert.Nil(t, reloadContract(t, db, contract.ID).SignedAt)
}

func TestSignWithoutSignatureImage(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)
	token := storedToken(t, db, contract.ID)

	w := doJSON(t, r, http.MethodPost, "/sign/contracts/"+token, SignContractInput{
		SignerName:    "Dana Reyes",
		AgreedToTerms: true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing-signature", decodeBody(t, w)["code"])
}

func TestReplayAfterSigning(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)
	token := storedToken(t, db, contract.ID)

	payload := SignContractInput{
		SignerName:     "Dana Reyes",
		SignatureImage: "data:image/png;base64,AAA=",
		AgreedToTerms:  true,
	}
	w := doJSON(t, r, http.MethodPost, "/sign/contracts/"+token, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Replaying the consumed link 404s on the lookup itself: the token was
	// cleared by the signing update.
	w = doJSON(t, r, http.MethodPost, "/sign/contracts/"+token, payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "invalid-link", decodeBody(t, w)["code"])
}

func TestCountersignBeforeClientReturnsBadRequest(t *testing.T) {
	db := setupTestDB(t)
	_, project, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/countersign", project.ID), CountersignInput{
		SignerName:     "Nadia B.",
		SignatureImage: "data:image/png;base64,CCC=",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "client-signature-required", decodeBody(t, w)["code"])
}

func TestCancelContractHandler(t *testing.T) {
	db := setupTestDB(t)
	_, _, contract := createSigningFixture(t, db)
	r := newSigningTestRouter()

	_, _, err := requestSignature(db, contract, "", "", "")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/contracts/%d/cancel", contract.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ContractStatusCancelled, reloadContract(t, db, contract.ID).Status)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/contracts/%d/cancel", contract.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not-pending", decodeBody(t, w)["code"])
}
