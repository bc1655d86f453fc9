package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `json:"CreatedAt"`
	UpdatedAt time.Time      `json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"DeletedAt"`

	Login        string `gorm:"column:login;uniqueIndex" json:"login"`
	Email        string `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash" json:"-"`
	FullName     string `gorm:"column:full_name" json:"fullName"`
	Status       string `gorm:"column:status;default:active" json:"status"`

	// Client-portal users carry a reference to the client record they may
	// act for; staff users leave it nil.
	ClientID *uint   `gorm:"column:client_id;index" json:"clientId,omitempty"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string { return "users" }

type Role struct {
	gorm.Model
	Name        string       `gorm:"uniqueIndex" json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

type Permission struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
}
