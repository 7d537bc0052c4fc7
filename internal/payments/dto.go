package payments

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

// PriceResponse is the public subscription price.
type PriceResponse struct {
	Price             float64 `json:"price"`
	Currency          string  `json:"currency"`
	PriceInMinorUnits int64   `json:"price_in_minor_units"`
}

// CreateOrderRequest is the body of POST /payments/create-order.
type CreateOrderRequest struct {
	Amount   *float64 `json:"amount" validate:"required"`
	Currency string   `json:"currency" validate:"omitempty,len=3,alpha"`
}

// CreateOrderResponse carries everything the checkout widget needs.
type CreateOrderResponse struct {
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	KeyID     string    `json:"key_id"`
	PaymentID uuid.UUID `json:"payment_id"`
}

// VerifyRequest is the checkout confirmation. The provider's razorpay_* field names
// are accepted as well.
type VerifyRequest struct {
	OrderID           string `json:"order_id"`
	PaymentID         string `json:"payment_id"`
	Signature         string `json:"signature"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Normalize folds the provider field names into the short ones and trims them.
func (r VerifyRequest) Normalize() VerifyRequest {
	pick := func(primary, alt string) string {
		if v := strings.TrimSpace(primary); v != "" {
			return v
		}
		return strings.TrimSpace(alt)
	}
	return VerifyRequest{
		OrderID:   pick(r.OrderID, r.RazorpayOrderID),
		PaymentID: pick(r.PaymentID, r.RazorpayPaymentID),
		Signature: pick(r.Signature, r.RazorpaySignature),
	}
}

// PaymentDTO is the transport shape of a payment row.
type PaymentDTO struct {
	ID                uuid.UUID           `json:"id"`
	UserID            *uuid.UUID          `json:"user_id"`
	Email             string              `json:"email"`
	PlanID            enums.PlanID        `json:"plan_id"`
	Amount            float64             `json:"amount"`
	Currency          string              `json:"currency"`
	RazorpayOrderID   string              `json:"razorpay_order_id"`
	RazorpayPaymentID *string             `json:"razorpay_payment_id"`
	RazorpaySignature *string             `json:"razorpay_signature"`
	Status            enums.PaymentStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:                p.ID,
		UserID:            p.UserID,
		Email:             p.Email,
		PlanID:            p.PlanID,
		Amount:            p.Amount.InexactFloat64(),
		Currency:          p.Currency,
		RazorpayOrderID:   p.ProviderOrderID,
		RazorpayPaymentID: p.ProviderPaymentID,
		RazorpaySignature: p.ProviderSignature,
		Status:            p.Status,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func FromModels(payments []models.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		out = append(out, *FromModel(&payments[i]))
	}
	return out
}
