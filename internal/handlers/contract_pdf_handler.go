package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const pdfCacheTTL = 10 * time.Minute

// contractDocTemplate renders the frozen contract body plus signature
// blocks into the HTML handed to the PDF converter. The DRAFT watermark is
// derived from signer presence, never from a stored flag.
var contractDocTemplate = template.Must(template.New("contract").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Georgia, serif; margin: 48px; color: #1a1a1a; }
  .body-text { white-space: pre-wrap; line-height: 1.5; }
  .signatures { margin-top: 64px; display: flex; justify-content: space-between; }
  .sig-block { width: 45%; border-top: 1px solid #1a1a1a; padding-top: 8px; font-size: 12px; }
  .sig-block img { max-height: 72px; }
  .watermark {
    position: fixed; top: 40%; left: 10%; font-size: 96px; color: rgba(200, 30, 30, 0.15);
    transform: rotate(-30deg); z-index: -1;
  }
</style>
</head>
<body>
{{if .Watermark}}<div class="watermark">DRAFT - UNSIGNED</div>{{end}}
<div class="body-text">{{.Body}}</div>
<div class="signatures">
  <div class="sig-block">
    {{if .SignatureImage}}<img src="{{.SignatureImage}}" alt="client signature"><br>{{end}}
    {{.SignerName}}<br>
    {{if .SignedAt}}Signed {{.SignedAt}}{{else}}Client{{end}}
  </div>
  <div class="sig-block">
    {{if .CountersignatureImage}}<img src="{{.CountersignatureImage}}" alt="countersignature"><br>{{end}}
    {{.CountersignerName}}<br>
    {{if .CountersignedAt}}Countersigned {{.CountersignedAt}}{{else}}{{.BusinessName}}{{end}}
  </div>
</div>
</body>
</html>`))

type contractDocData struct {
	Body                  string
	Watermark             bool
	SignerName            string
	SignatureImage        template.URL
	SignedAt              string
	CountersignerName     string
	CountersignatureImage template.URL
	CountersignedAt       string
	BusinessName          string
}

func renderContractHTML(contract *models.Contract) (string, error) {
	data := contractDocData{
		Body:                  contract.Body,
		Watermark:             contract.SignedAt == nil,
		SignerName:            contract.SignerName,
		SignatureImage:        template.URL(contract.SignatureImage),
		CountersignerName:     contract.CountersignerName,
		CountersignatureImage: template.URL(contract.CountersignatureImage),
		BusinessName:          businessName(),
	}
	if contract.SignedAt != nil {
		data.SignedAt = contract.SignedAt.Format("January 2, 2006")
	}
	if contract.CountersignedAt != nil {
		data.CountersignedAt = contract.CountersignedAt.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := contractDocTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render contract document: %w", err)
	}
	return buf.String(), nil
}

// convertHTMLToPDF sends the document to the Gotenberg converter. The call
// is bounded; a slow or dead converter fails the render, never the signing
// state.
func convertHTMLToPDF(html string) ([]byte, error) {
	gotenbergURL := os.Getenv("GOTENBERG_URL")
	if gotenbergURL == "" {
		gotenbergURL = "http://gotenberg:3000"
	}
	endpoint := gotenbergURL + "/forms/chromium/convert/html"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write([]byte(html)); err != nil {
		return nil, fmt.Errorf("failed to write HTML to form: %w", err)
	}
	writer.Close()

	req, err := http.NewRequest("POST", endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Gotenberg request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Gotenberg conversion failed: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	pdfBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gotenberg response: %w", err)
	}
	return pdfBytes, nil
}

// materializeSignedPDF renders and persists the final immutable document
// once both signatures exist. Idempotent: a path already on the record
// short-circuits. The path assignment is a single conditional write, so
// two racing materializations cannot both win; the file write itself is
// safe to race because the content is deterministic from persisted data.
func materializeSignedPDF(db *gorm.DB, contract *models.Contract) (string, error) {
	if contract.SignedPDFPath != "" {
		return contract.SignedPDFPath, nil
	}
	if contract.SignedAt == nil || contract.CountersignedAt == nil {
		return "", fmt.Errorf("contract %d is not fully signed", contract.ID)
	}

	html, err := renderContractHTML(contract)
	if err != nil {
		return "", err
	}
	pdfBytes, err := convertHTMLToPDF(html)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(contractsBaseDir(), fmt.Sprintf("project-%d", contract.ProjectID))
	if err := ensureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create contracts directory: %w", err)
	}
	name := fmt.Sprintf("contract-%d-signed-%s.pdf", contract.ID, uuid.NewString()[:8])
	full := filepath.Join(dir, name)
	if err := os.WriteFile(full, pdfBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write signed PDF: %w", err)
	}

	res := db.Model(&models.Contract{}).
		Where("id = ? AND (signed_pdf_path IS NULL OR signed_pdf_path = '')", contract.ID).
		Update("signed_pdf_path", full)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent materialization won; serve its artifact instead.
		os.Remove(full)
		var winner models.Contract
		if err := db.Select("signed_pdf_path").First(&winner, contract.ID).Error; err != nil {
			return "", err
		}
		contract.SignedPDFPath = winner.SignedPDFPath
		return winner.SignedPDFPath, nil
	}

	contract.SignedPDFPath = full
	return full, nil
}

// materializeSignedPDFAsync runs materialization after a countersign.
// Failures are logged only: the next PDF fetch retries lazily.
func materializeSignedPDFAsync(contractID uint) {
	var contract models.Contract
	if err := config.DB.First(&contract, contractID).Error; err != nil {
		slog.Error("Materialization lookup failed", "error", err, "contract_id", contractID)
		return
	}
	if _, err := materializeSignedPDF(config.DB, &contract); err != nil {
		slog.Error("Signed PDF materialization failed, will retry on next fetch",
			"error", err, "contract_id", contractID)
	}
}

// serveContractPDF implements the document serving policy: the immutable
// signed artifact when present (bypassing the render cache entirely),
// otherwise an on-demand render cached by (contract id, last-modified).
func serveContractPDF(c *gin.Context, contract *models.Contract) {
	if contract.SignedPDFPath != "" && fileExists(contract.SignedPDFPath) {
		data, err := os.ReadFile(contract.SignedPDFPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read signed PDF"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=contract-%d.pdf", contract.ID))
		c.Data(http.StatusOK, "application/pdf", data)
		return
	}

	// Lazy materialization retry: both signatures present but no artifact.
	if contract.SignedAt != nil && contract.CountersignedAt != nil {
		if path, err := materializeSignedPDF(config.DB, contract); err == nil && fileExists(path) {
			data, err := os.ReadFile(path)
			if err == nil {
				c.Header("Content-Disposition", fmt.Sprintf("inline; filename=contract-%d.pdf", contract.ID))
				c.Data(http.StatusOK, "application/pdf", data)
				return
			}
		} else if err != nil {
			slog.Error("Lazy materialization failed", "error", err, "contract_id", contract.ID)
		}
	}

	cacheKey := fmt.Sprintf("contractpdf:%d:%d", contract.ID, contract.UpdatedAt.Unix())
	if config.RDB != nil {
		if cached, err := config.RDB.Get(config.Ctx, cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/pdf", cached)
			return
		}
	}

	html, err := renderContractHTML(contract)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render contract"})
		return
	}
	pdfBytes, err := convertHTMLToPDF(html)
	if err != nil {
		slog.Error("On-demand PDF render failed", "error", err, "contract_id", contract.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render contract PDF"})
		return
	}

	if config.RDB != nil {
		if err := config.RDB.Set(config.Ctx, cacheKey, pdfBytes, pdfCacheTTL).Err(); err != nil {
			slog.Warn("Failed to cache contract PDF", "error", err, "contract_id", contract.ID)
		}
	}
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ContractPDFHandler serves the newest contract document for a project to
// an operator or the owning client.
func ContractPDFHandler(c *gin.Context) {
	contract, err := latestContractForProject(config.DB, c.Param("id"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}

	if isClientRole(c) && !ownsProject(c, contract.ProjectID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	serveContractPDF(c, contract)
}

// ContractPDFByTokenHandler serves the document to the anonymous signer;
// the signing token is the authorization credential.
func ContractPDFByTokenHandler(c *gin.Context) {
	contract, err := findContractByToken(config.DB, c.Param("token"))
	if err != nil {
		respondSignatureError(c, err)
		return
	}
	serveContractPDF(c, contract)
}

func isClientRole(c *gin.Context) bool {
	roles, ok := c.Get("roles")
	if !ok {
		return false
	}
	names, ok := roles.([]string)
	if !ok {
		return false
	}
	for _, name := range names {
		if name == "client" {
			return true
		}
	}
	return false
}

// ownsProject checks that the client-portal caller's client record owns
// the project.
func ownsProject(c *gin.Context, projectID uint) bool {
	val, ok := c.Get("client_id")
	if !ok {
		return false
	}
	clientID, ok := val.(uint)
	if !ok || clientID == 0 {
		return false
	}

	var project models.Project
	if err := config.DB.Select("client_id").First(&project, projectID).Error; err != nil {
		return false
	}
	return project.ClientID == clientID
}
