package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectStatusLead      = "lead"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

type Project struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	Name        string     `gorm:"column:name" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	Status      string     `gorm:"column:status;default:lead" json:"status"`
	Price       float64    `gorm:"column:price" json:"price"`
	StartDate   *time.Time `gorm:"column:start_date" json:"startDate,omitempty"`
	DueDate     *time.Time `gorm:"column:due_date" json:"dueDate,omitempty"`

	// Legacy mirror of the newest contract's signature state. The contracts
	// table is the source of truth; this column is kept in sync inside the
	// same transaction as every contract transition because the project
	// list pages still read it.
	ContractStatus string `gorm:"column:contract_status;default:none" json:"contractStatus"`

	ClientID uint    `gorm:"column:client_id;index" json:"clientId"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	ManagerID uint  `gorm:"column:manager_id;index" json:"managerId"`
	Manager   *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

func (Project) TableName() string { return "projects" }
