package models

import (
	"time"

	"gorm.io/gorm"
)

// Contract lifecycle states. Countersignature is not a state of its own: a
// countersigned contract stays in "signed" with countersigner fields set.
const (
	ContractStatusDraft     = "draft"
	ContractStatusSent      = "sent"
	ContractStatusViewed    = "viewed"
	ContractStatusSigned    = "signed"
	ContractStatusExpired   = "expired"
	ContractStatusCancelled = "cancelled"
)

// Contract holds the rendered agreement for a project plus the whole
// signing trail. Signing-token fields are non-null only while a signature
// request is outstanding ({sent, viewed}); they are cleared in the same
// update that moves the row to signed or expired. The signed PDF lives on
// disk; only its path is stored.
type Contract struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	ProjectID uint     `gorm:"column:project_id;index" json:"projectId"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	ClientID uint    `gorm:"column:client_id;index" json:"clientId"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Optional: contracts may be freeform (no template).
	TemplateID *uint             `gorm:"column:template_id" json:"templateId,omitempty"`
	Template   *ContractTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	// Amendments and renewals point at the contract they supersede.
	ParentContractID *uint      `gorm:"column:parent_contract_id" json:"parentContractId,omitempty"`
	RenewalDate      *time.Time `gorm:"column:renewal_date" json:"renewalDate,omitempty"`
	AutoRenew        bool       `gorm:"column:auto_renew" json:"autoRenew"`

	// Body is frozen at render time; Bindings is the JSON snapshot of the
	// variable values substituted into the template.
	Body     string `gorm:"column:body;type:text" json:"body"`
	Bindings string `gorm:"column:bindings;type:text" json:"bindings"`

	Status string `gorm:"column:status;default:draft;index" json:"status"`

	SignatureToken       *string    `gorm:"column:signature_token;uniqueIndex" json:"-"`
	SignatureRequestedAt *time.Time `gorm:"column:signature_requested_at" json:"signatureRequestedAt,omitempty"`
	SignatureExpiresAt   *time.Time `gorm:"column:signature_expires_at" json:"signatureExpiresAt,omitempty"`
	SentAt               *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
	ViewedAt             *time.Time `gorm:"column:viewed_at" json:"viewedAt,omitempty"`

	SignerName      string     `gorm:"column:signer_name" json:"signerName,omitempty"`
	SignerEmail     string     `gorm:"column:signer_email" json:"signerEmail,omitempty"`
	SignerIP        string     `gorm:"column:signer_ip" json:"-"`
	SignerUserAgent string     `gorm:"column:signer_user_agent" json:"-"`
	SignatureImage  string     `gorm:"column:signature_image;type:text" json:"-"`
	SignedAt        *time.Time `gorm:"column:signed_at" json:"signedAt,omitempty"`

	CountersignerName      string     `gorm:"column:countersigner_name" json:"countersignerName,omitempty"`
	CountersignerEmail     string     `gorm:"column:countersigner_email" json:"countersignerEmail,omitempty"`
	CountersignerIP        string     `gorm:"column:countersigner_ip" json:"-"`
	CountersignerUserAgent string     `gorm:"column:countersigner_user_agent" json:"-"`
	CountersignatureImage  string     `gorm:"column:countersignature_image;type:text" json:"-"`
	CountersignedAt        *time.Time `gorm:"column:countersigned_at" json:"countersignedAt,omitempty"`

	SignedPDFPath string `gorm:"column:signed_pdf_path" json:"signedPdfPath,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (c *Contract) IsTerminal() bool {
	return c.Status == ContractStatusSigned || c.Status == ContractStatusExpired || c.Status == ContractStatusCancelled
}
