package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

// Subscription is one paid term. Rows are never deleted, only status-transitioned,
// so a user's history is the set of their rows ordered by created_at.
type Subscription struct {
	ID          uuid.UUID                `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	PlanID      enums.PlanID             `gorm:"column:plan_id;not null"`
	Status      enums.SubscriptionStatus `gorm:"column:status;not null"`
	StartDate   time.Time                `gorm:"column:start_date;not null"`
	EndDate     time.Time                `gorm:"column:end_date;not null"`
	CancelledAt *time.Time               `gorm:"column:cancelled_at"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
