package enums

// PaymentStatus tracks a gateway order from creation to capture or failure.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return oneOf(paymentStatuses, p) }

// Terminal reports whether no further transition is allowed.
func (p PaymentStatus) Terminal() bool {
	return p == PaymentStatusCompleted || p == PaymentStatusFailed
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	return parse("payment status", paymentStatuses, raw)
}
