package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/Knetic/govaluate"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type InvoiceInput struct {
	ProjectID     uint       `json:"projectId" binding:"required"`
	Amount        float64    `json:"amount" binding:"required"`
	IssuedDate    *time.Time `json:"issuedDate"`
	DueDate       *time.Time `json:"dueDate"`
	Notes         string     `json:"notes"`
	PaymentFormID *uint      `json:"paymentFormId"`
}

// PaymentPreview is one installment in a generated payment schedule.
type PaymentPreview struct {
	Name        string  `json:"name"`
	PaymentDate string  `json:"paymentDate"`
	Amount      float64 `json:"amount"`
}

func ListInvoicesHandler(c *gin.Context) {
	var invoices []models.Invoice
	var totalRows int64

	query := config.DB.Model(&models.Invoice{}).Preload("Project")
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(invoice_number) LIKE ?", pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not count invoices"})
		return
	}
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch invoices"})
		return
	}

	if invoices == nil {
		invoices = make([]models.Invoice, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, invoices, totalRows))
}

// CreateInvoiceHandler creates an invoice with a unique sequential number
// per project ("INV-{projectID}-{seq}"). On a number collision the
// sequence is bumped and the insert retried.
func CreateInvoiceHandler(c *gin.Context) {
	var input InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice data: " + err.Error()})
		return
	}

	var project models.Project
	if err := config.DB.First(&project, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var existing int64
	if err := config.DB.Model(&models.Invoice{}).Where("project_id = ?", project.ID).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not number invoice"})
		return
	}
	seq := int(existing) + 1

	const maxTries = 10
	for i := 0; i < maxTries; i++ {
		invoice := models.Invoice{
			InvoiceNumber: fmt.Sprintf("INV-%d-%d", project.ID, seq),
			Amount:        input.Amount,
			IssuedDate:    input.IssuedDate,
			DueDate:       input.DueDate,
			Notes:         input.Notes,
			Status:        models.InvoiceStatusDraft,
			ProjectID:     project.ID,
			PaymentFormID: input.PaymentFormID,
		}

		err := config.DB.Create(&invoice).Error
		if err == nil {
			c.JSON(http.StatusCreated, invoice)
			return
		}
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
			strings.Contains(strings.ToLower(err.Error()), "unique") {
			seq++
			continue
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save invoice: " + err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate a unique invoice number"})
}

func GetInvoiceHandler(c *gin.Context) {
	id := c.Param("id")
	var invoice models.Invoice
	if err := config.DB.Preload("Project").Preload("PaymentForm.Installments").First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch invoice"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func UpdateInvoiceHandler(c *gin.Context) {
	id := c.Param("id")
	var invoice models.Invoice
	if err := config.DB.First(&invoice, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	var input InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice data: " + err.Error()})
		return
	}

	invoice.Amount = input.Amount
	invoice.IssuedDate = input.IssuedDate
	invoice.DueDate = input.DueDate
	invoice.Notes = input.Notes
	if input.PaymentFormID != nil {
		invoice.PaymentFormID = input.PaymentFormID
	}

	if err := config.DB.Save(&invoice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func MarkInvoicePaidHandler(c *gin.Context) {
	id := c.Param("id")
	var invoice models.Invoice
	if err := config.DB.First(&invoice, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	if err := config.DB.Save(&invoice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func DeleteInvoiceHandler(c *gin.Context) {
	id := c.Param("id")
	result := config.DB.Delete(&models.Invoice{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invoice"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// PreviewPaymentScheduleHandler evaluates a payment form's installment
// formulas against a project's amounts without persisting anything.
// Formulas see the variables "Total" and "Remaining", e.g. "Total * 0.5".
func PreviewPaymentScheduleHandler(c *gin.Context) {
	projectID := c.Param("id")
	var body struct {
		PaymentFormID uint `json:"paymentFormId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment form is required"})
		return
	}

	var project models.Project
	if err := config.DB.First(&project, projectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var paymentForm models.PaymentForm
	if err := config.DB.Preload("Installments").First(&paymentForm, body.PaymentFormID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment form not found"})
		return
	}

	parameters := map[string]interface{}{
		"Total":     project.Price,
		"Remaining": project.Price,
	}

	start := time.Now()
	if project.StartDate != nil {
		start = *project.StartDate
	}

	var schedule []PaymentPreview
	remaining := project.Price
	for _, installment := range paymentForm.Installments {
		expression, err := govaluate.NewEvaluableExpression(installment.Formula)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid formula %q: %v", installment.Formula, err)})
			return
		}

		parameters["Remaining"] = remaining
		result, err := expression.Evaluate(parameters)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Could not evaluate formula: %v", err)})
			return
		}
		amount, ok := result.(float64)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Formula result is not a number"})
			return
		}
		remaining -= amount

		schedule = append(schedule, PaymentPreview{
			Name:        installment.Name,
			PaymentDate: start.AddDate(0, 0, installment.DueAfterDays).Format("2006-01-02"),
			Amount:      amount,
		})
	}

	c.JSON(http.StatusOK, schedule)
}

// ExportInvoicesHandler writes the invoice register as an xlsx download.
func ExportInvoicesHandler(c *gin.Context) {
	type exportRow struct {
		InvoiceNumber string
		ProjectName   string
		ClientName    string
		Amount        float64
		Status        string
		DueDate       *time.Time
		PaidAt        *time.Time
	}

	var rows []exportRow
	query := config.DB.Table("invoices").
		Select(`invoices.invoice_number, projects.name as project_name, clients.name as client_name,
			invoices.amount, invoices.status, invoices.due_date, invoices.paid_at`).
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Joins("JOIN clients ON clients.id = projects.client_id").
		Where("invoices.deleted_at IS NULL").
		Order("invoices.created_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("invoices.status = ?", status)
	}

	if err := query.Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data for export"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Invoices"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Invoice", "Project", "Client", "Amount", "Status", "Due date", "Paid at"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.InvoiceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.ProjectName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.ClientName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Status)
		if r.DueDate != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.DueDate.Format("2006-01-02"))
		}
		if r.PaidAt != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.PaidAt.Format("2006-01-02"))
		}
	}

	fileName := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}
