package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is a company or individual the agency works for.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	Name        string `gorm:"column:name" json:"name"`
	CompanyName string `gorm:"column:company_name" json:"companyName"`
	Email       string `gorm:"column:email;index" json:"email"`
	Phone       string `gorm:"column:phone" json:"phone"`
	Address     string `gorm:"column:address" json:"address"`
	Notes       string `gorm:"column:notes;type:text" json:"notes"`

	Projects []Project `gorm:"foreignKey:ClientID" json:"projects,omitempty"`
}

func (Client) TableName() string { return "clients" }
