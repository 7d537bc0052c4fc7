package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder. Admin status is a plain flag on the row.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email;not null;uniqueIndex"`
	ContactNumber string     `gorm:"column:contact_number;not null"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	IsAdmin       bool       `gorm:"column:is_admin;not null;default:false"`
	LastLogin     *time.Time `gorm:"column:last_login"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
