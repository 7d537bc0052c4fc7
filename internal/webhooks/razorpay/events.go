package razorpaywebhook

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// Event is the subset of a Razorpay webhook delivery the service reads.
type Event struct {
	Event     string  `json:"event"`
	AccountID string  `json:"account_id"`
	CreatedAt int64   `json:"created_at"`
	Payload   Payload `json:"payload"`
}

type Payload struct {
	Payment *PaymentWrapper `json:"payment"`
}

type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Email            string `json:"email"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// payment returns the embedded payment entity, or nil when the payload carries none.
func (e Event) payment() *PaymentEntity {
	if e.Payload.Payment == nil {
		return nil
	}
	return &e.Payload.Payment.Entity
}
