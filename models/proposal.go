package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProposalStatusDraft    = "draft"
	ProposalStatusSent     = "sent"
	ProposalStatusAccepted = "accepted"
	ProposalStatusDeclined = "declined"
)

type Proposal struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	Title  string `gorm:"column:title" json:"title"`
	Body   string `gorm:"column:body;type:text" json:"body"`
	Status string `gorm:"column:status;default:draft" json:"status"`

	ProjectID uint     `gorm:"column:project_id;index" json:"projectId"`
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Proposal) TableName() string { return "proposals" }
