package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

// SubscriptionDTO is the transport shape of a subscription row. IsActive is computed
// at serialization time and never stored.
type SubscriptionDTO struct {
	ID          uuid.UUID                `json:"id"`
	UserID      uuid.UUID                `json:"user_id"`
	PlanID      enums.PlanID             `json:"plan_id"`
	Status      enums.SubscriptionStatus `json:"status"`
	StartDate   time.Time                `json:"start_date"`
	EndDate     time.Time                `json:"end_date"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	CancelledAt *time.Time               `json:"cancelled_at"`
	IsActive    bool                     `json:"is_active"`
}

// RenewRequest is the body of user renewals and admin extensions.
type RenewRequest struct {
	Months *int `json:"months,omitempty" validate:"omitempty,min=1,max=120"`
}

// ActivateRequest is the body of an admin activation without payment.
type ActivateRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Months *int   `json:"months,omitempty" validate:"omitempty,min=1,max=120"`
}

// MonthsOrDefault returns the requested months, defaulting to one.
func MonthsOrDefault(months *int) int {
	if months == nil {
		return 1
	}
	return *months
}

func FromModel(sub *models.Subscription, now time.Time) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:          sub.ID,
		UserID:      sub.UserID,
		PlanID:      sub.PlanID,
		Status:      sub.Status,
		StartDate:   sub.StartDate,
		EndDate:     sub.EndDate,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
		CancelledAt: sub.CancelledAt,
		IsActive:    IsActive(sub, now),
	}
}

func FromModels(subs []models.Subscription, now time.Time) []SubscriptionDTO {
	out := make([]SubscriptionDTO, 0, len(subs))
	for i := range subs {
		out = append(out, *FromModel(&subs[i], now))
	}
	return out
}
