package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	InvoiceNumber string     `gorm:"column:invoice_number;uniqueIndex" json:"invoiceNumber"`
	Amount        float64    `gorm:"column:amount" json:"amount"`
	IssuedDate    *time.Time `gorm:"column:issued_date" json:"issuedDate,omitempty"`
	DueDate       *time.Time `gorm:"column:due_date" json:"dueDate,omitempty"`
	Status        string     `gorm:"column:status;default:draft" json:"status"`
	PaidAt        *time.Time `gorm:"column:paid_at" json:"paidAt,omitempty"`
	Notes         string     `gorm:"column:notes;type:text" json:"notes"`

	ProjectID uint     `gorm:"column:project_id;index" json:"projectId"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	PaymentFormID *uint        `gorm:"column:payment_form_id" json:"paymentFormId,omitempty"`
	PaymentForm   *PaymentForm `gorm:"foreignKey:PaymentFormID" json:"paymentForm,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// PaymentForm describes how a project total breaks into installments. Each
// installment carries a formula evaluated against the contract amounts,
// e.g. "Total * 0.5" for a 50% deposit.
type PaymentForm struct {
	gorm.Model
	Name         string        `json:"name"`
	Installments []Installment `gorm:"foreignKey:PaymentFormID" json:"installments,omitempty"`
}

type Installment struct {
	gorm.Model
	PaymentFormID uint   `gorm:"column:payment_form_id;index" json:"paymentFormId"`
	Name          string `json:"name"`
	Formula       string `json:"formula"`
	DueAfterDays  int    `gorm:"column:due_after_days" json:"dueAfterDays"`
}
