package enums

// SubscriptionStatus is the state of a single subscription row. Expired and
// cancelled are both terminal for that row.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var subscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusExpired,
	SubscriptionStatusCancelled,
}

// CurrentSubscriptionStatuses are the statuses a user's current subscription may hold.
var CurrentSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusExpired,
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) IsValid() bool { return oneOf(subscriptionStatuses, s) }

func ParseSubscriptionStatus(raw string) (SubscriptionStatus, error) {
	return parse("subscription status", subscriptionStatuses, raw)
}
