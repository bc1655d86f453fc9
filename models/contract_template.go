package models

import "gorm.io/gorm"

const (
	TemplateCategoryStandard    = "standard"
	TemplateCategoryCustom      = "custom"
	TemplateCategoryAmendment   = "amendment"
	TemplateCategoryNDA         = "nda"
	TemplateCategoryMaintenance = "maintenance"
)

// ContractTemplate is reusable contract text with {{dotted.name}}
// placeholders. Templates are never hard-deleted, only deactivated. At most
// one active template per category may be the default.
type ContractTemplate struct {
	gorm.Model
	Name     string `json:"name"`
	Category string `gorm:"index" json:"category"`
	Body     string `gorm:"type:text" json:"body"`

	// Declared placeholder names, stored as a JSON array. Placeholders the
	// resolver cannot bind render as empty strings.
	Placeholders string `gorm:"type:text" json:"placeholders"`

	IsDefault bool `gorm:"column:is_default" json:"isDefault"`
	IsActive  bool `gorm:"column:is_active;default:true" json:"isActive"`
}

func ValidTemplateCategory(category string) bool {
	switch category {
	case TemplateCategoryStandard, TemplateCategoryCustom, TemplateCategoryAmendment,
		TemplateCategoryNDA, TemplateCategoryMaintenance:
		return true
	}
	return false
}
