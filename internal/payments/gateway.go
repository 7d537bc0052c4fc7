package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/money"
	"github.com/jarvis4everyone/subscription-backend/pkg/razorpay"
)

// Order is the gateway-side order returned to the reconciliation flow.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

// Gateway wraps the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	KeyID() string
}

type razorpayAPI interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, params razorpay.CreateOrderParams) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// RazorpayGateway adapts the Razorpay REST client to Gateway.
type RazorpayGateway struct {
	client razorpayAPI
	note   string
}

// NewRazorpayGateway builds the adapter. note is attached to every order as its description.
func NewRazorpayGateway(client *razorpay.Client, note string) *RazorpayGateway {
	return &RazorpayGateway{client: client, note: note}
}

// CreateOrder converts amount to minor units and requests an auto-captured order.
// Invalid amounts are rejected before any network call.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency string) (*Order, error) {
	value, err := money.FromFloat(amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Amount must be a positive number")
	}
	if !g.client.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnconfigured, "Payment gateway is not configured. Please set RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET.")
	}

	params := razorpay.CreateOrderParams{
		Amount:         money.ToMinorUnits(value),
		Currency:       strings.ToUpper(strings.TrimSpace(currency)),
		PaymentCapture: 1,
	}
	if g.note != "" {
		params.Notes = map[string]string{"description": g.note, "plan_id": enums.PlanMonthly.String()}
	}

	order, err := g.client.CreateOrder(ctx, params)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	return &Order{
		ID:          order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		Status:      order.Status,
	}, nil
}

func (g *RazorpayGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return g.client.VerifyPaymentSignature(orderID, paymentID, signature)
}

func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return g.client.VerifyWebhookSignature(body, signature)
}

func (g *RazorpayGateway) KeyID() string {
	return g.client.KeyID()
}

func mapGatewayError(err error) error {
	if errors.Is(err, razorpay.ErrNotConfigured) {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnconfigured, err, "Payment gateway is not configured")
	}
	if razorpay.IsAuthError(err) {
		return pkgerrors.Wrap(pkgerrors.CodeGatewayAuthFailed, err, "Payment gateway authentication failed. Please check your API credentials.")
	}
	var apiErr *razorpay.APIError
	if errors.As(err, &apiErr) && apiErr.Description != "" {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "Payment gateway error: "+apiErr.Description)
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "Failed to create payment order")
}
