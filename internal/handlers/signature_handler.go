package handlers

import (
	"net/http"

	"github.com/nobhad/no-bhad-codes-sub012/config"

	"github.com/gin-gonic/gin"
)

type SignContractInput struct {
	SignerName     string `json:"signerName"`
	SignatureImage string `json:"signatureImage"`
	AgreedToTerms  bool   `json:"agreedToTerms"`
}

type CountersignInput struct {
	SignerName     string `json:"signerName"`
	SignatureImage string `json:"signatureImage"`
}

// RequestSignatureHandler issues (or re-issues) a signing link for the
// project's newest contract and emails it to the client. Re-requesting
// overwrites any outstanding token, so old links die immediately.
func RequestSignatureHandler(c *gin.Context) {
	contract, err := latestContractForProject(config.DB, c.Param("id"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}
	if contract.Client == nil || contract.Client.Email == "" {
		respondSignatureError(c, errSignerEmailRequired)
		return
	}

	token, expiresAt, err := requestSignature(config.DB, contract,
		getUserEmailFromContext(c), c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	go sendSignatureRequestEmail(contract, token)

	c.JSON(http.StatusOK, gin.H{
		"contractId": contract.ID,
		"expiresAt":  expiresAt,
		"signingUrl": signingLink(token),
	})
}

// ViewContractByTokenHandler is the public landing fetch for a signing
// link. The token is the entire authorization decision. It returns a
// minimal projection, never the raw body text, which is only reachable
// through the token-guarded PDF endpoint.
func ViewContractByTokenHandler(c *gin.Context) {
	contract, err := findContractByToken(config.DB, c.Param("token"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	if err := markViewed(config.DB, contract, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		respondSignatureError(c, err)
		return
	}

	projection := gin.H{
		"contractId":  contract.ID,
		"status":      contract.Status,
		"expiresAt":   contract.SignatureExpiresAt,
		"documentUrl": "/sign/contracts/" + c.Param("token") + "/pdf",
	}
	if contract.Project != nil {
		projection["projectName"] = contract.Project.Name
		projection["price"] = contract.Project.Price
	}
	if contract.Client != nil {
		projection["clientName"] = contract.Client.Name
		projection["clientEmail"] = contract.Client.Email
	}
	c.JSON(http.StatusOK, projection)
}

// SignContractByTokenHandler finalizes the client signature. Success is
// defined purely by the committed state change; the confirmation emails
// are fire-and-forget and their failure never rolls a signature back.
func SignContractByTokenHandler(c *gin.Context) {
	token := c.Param("token")
	contract, err := findContractByToken(config.DB, token)
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	var input SignContractInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondSignatureError(c, errMissingSignature)
		return
	}
	if !input.AgreedToTerms {
		respondSignatureError(c, errTermsNotAccepted)
		return
	}
	if input.SignerName == "" || input.SignatureImage == "" {
		respondSignatureError(c, errMissingSignature)
		return
	}

	signedAt, err := submitSignature(config.DB, contract, token,
		input.SignerName, input.SignatureImage, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	go sendSignedConfirmationEmail(contract)
	go sendOperatorSignedNotice(contract)

	c.JSON(http.StatusOK, gin.H{
		"contractId": contract.ID,
		"status":     contract.Status,
		"signedAt":   signedAt,
	})
}

// CountersignContractHandler records the agency countersignature on the
// project's newest contract, then kicks off signed-artifact
// materialization in the background. Materialization failures are logged
// and retried lazily on the next PDF fetch.
func CountersignContractHandler(c *gin.Context) {
	contract, err := latestContractForProject(config.DB, c.Param("id"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	var input CountersignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondSignatureError(c, errMissingSignature)
		return
	}
	if input.SignerName == "" || input.SignatureImage == "" {
		respondSignatureError(c, errMissingSignature)
		return
	}

	countersignedAt, err := countersign(config.DB, contract,
		input.SignerName, getUserEmailFromContext(c), input.SignatureImage,
		c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	go materializeSignedPDFAsync(contract.ID)
	go sendCountersignedEmail(contract)

	c.JSON(http.StatusOK, gin.H{
		"contractId":      contract.ID,
		"status":          contract.Status,
		"countersignedAt": countersignedAt,
	})
}

// SignatureStatusHandler returns the full signature projection plus the
// audit trail for the project's newest contract.
func SignatureStatusHandler(c *gin.Context) {
	contract, err := latestContractForProject(config.DB, c.Param("id"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	trail, err := loadSignatureTrail(config.DB, contract.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load signature history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contractId":         contract.ID,
		"status":             contract.Status,
		"sentAt":             contract.SentAt,
		"viewedAt":           contract.ViewedAt,
		"signedAt":           contract.SignedAt,
		"signerName":         contract.SignerName,
		"signerEmail":        contract.SignerEmail,
		"countersignedAt":    contract.CountersignedAt,
		"countersignerName":  contract.CountersignerName,
		"countersignerEmail": contract.CountersignerEmail,
		"expiresAt":          contract.SignatureExpiresAt,
		"signedPdfPath":      contract.SignedPDFPath,
		"log":                trail,
	})
}

func signingLink(token string) string {
	return publicBaseURL() + "/sign/contracts/" + token
}
