package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

// Payment is one attempted gateway order. UserID is cleared when the user is deleted;
// Email is a snapshot kept for audit.
type Payment struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID            *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	Email             string              `gorm:"column:email;not null"`
	PlanID            enums.PlanID        `gorm:"column:plan_id;not null"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;not null"`
	ProviderOrderID   string              `gorm:"column:provider_order_id;not null;uniqueIndex"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	ProviderSignature *string             `gorm:"column:provider_signature"`
	Status            enums.PaymentStatus `gorm:"column:status;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
