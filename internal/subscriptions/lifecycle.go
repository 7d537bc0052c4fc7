package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

const (
	// DaysPerMonth is the fixed length of a billing month. Terms never use calendar months.
	DaysPerMonth = 30
	// MaxMonths bounds a single renew or extend request.
	MaxMonths = 120
)

const day = 24 * time.Hour

// ComputeEndDate returns start plus months*30 days, so Jan 31 + 1 month is Mar 2
// regardless of the calendar or the location of start.
func ComputeEndDate(start time.Time, months int) time.Time {
	return start.Add(time.Duration(months) * DaysPerMonth * day)
}

// IsActive reports whether the subscription grants access at now. It is derived from
// status and end date on every call; a row still marked active whose end date has
// passed is not active.
func IsActive(sub *models.Subscription, now time.Time) bool {
	if sub == nil || sub.Status != enums.SubscriptionStatusActive {
		return false
	}
	return !now.After(sub.EndDate)
}

// IsPastDue reports whether an active row has outlived its end date and should be
// flipped to expired.
func IsPastDue(sub *models.Subscription, now time.Time) bool {
	if sub == nil || sub.Status != enums.SubscriptionStatusActive {
		return false
	}
	return now.After(sub.EndDate)
}

func newSubscription(userID uuid.UUID, months int, start time.Time) *models.Subscription {
	return &models.Subscription{
		UserID:    userID,
		PlanID:    enums.PlanMonthly,
		Status:    enums.SubscriptionStatusActive,
		StartDate: start,
		EndDate:   ComputeEndDate(start, months),
		CreatedAt: start,
		UpdatedAt: start,
	}
}
