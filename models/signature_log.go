package models

import "time"

// Signature lifecycle actions recorded in the audit trail.
const (
	SignatureActionRequested     = "requested"
	SignatureActionViewed        = "viewed"
	SignatureActionSigned        = "signed"
	SignatureActionCountersigned = "countersigned"
	SignatureActionDeclined      = "declined"
	SignatureActionExpired       = "expired"
	SignatureActionCancelled     = "cancelled"
)

// SignatureLog is the append-only audit record for every contract
// lifecycle action. Rows are written inside the same transaction as the
// transition they describe and are never updated or deleted.
type SignatureLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContractID uint      `gorm:"column:contract_id;index;not null" json:"contractId"`
	ProjectID  uint      `gorm:"column:project_id;index" json:"projectId"`
	Action     string    `gorm:"column:action;size:32;not null" json:"action"`
	Actor      string    `gorm:"column:actor;size:255" json:"actor"` // email address or "system"
	IPAddress  string    `gorm:"column:ip_address;size:45" json:"ipAddress"`
	UserAgent  string    `gorm:"column:user_agent;size:255" json:"userAgent"`
	Detail     string    `gorm:"column:detail;type:text" json:"detail"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (SignatureLog) TableName() string { return "signature_logs" }
