package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/dbtest"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
	"github.com/jarvis4everyone/subscription-backend/pkg/razorpay"
)

const keySecret = "key_secret"

var fixedNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

type fakeGateway struct {
	orderID string
	err     error
	calls   int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount float64, currency string) (*Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Order{ID: f.orderID, AmountMinor: int64(amount * 100), Currency: currency, Status: "created"}, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.Sign(keySecret, []byte(orderID+"|"+paymentID)) == signature
}

func (f *fakeGateway) VerifyWebhookSignature([]byte, string) bool { return false }

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

type paymentEnv struct {
	svc     Service
	subs    subscriptions.Service
	gateway *fakeGateway
	conn    *gorm.DB
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	clock := func() time.Time { return fixedNow }
	runner := db.Wrap(conn)

	subs, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: runner,
		Logger:            logg,
		Clock:             clock,
	})
	require.NoError(t, err)

	gateway := &fakeGateway{orderID: "order_" + uuid.NewString()[:8]}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		Gateway:           gateway,
		Subscriptions:     subs,
		TransactionRunner: runner,
		Config: config.SubscriptionConfig{
			Price:    decimal.RequireFromString("299.00"),
			Currency: "INR",
			PlanID:   "monthly",
		},
		Logger: logg,
		Clock:  clock,
	})
	require.NoError(t, err)
	return &paymentEnv{svc: svc, subs: subs, gateway: gateway, conn: conn}
}

func (e *paymentEnv) createUser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		Name:          "Pepper",
		Email:         uuid.NewString() + "@example.com",
		ContactNumber: "9000000000",
		PasswordHash:  "hash",
	}
	require.NoError(t, e.conn.Create(user).Error)
	return user
}

func (e *paymentEnv) openOrder(t *testing.T, user *models.User) *CreateOrderResponse {
	t.Helper()
	amount := 299.0
	resp, err := e.svc.CreateOrder(context.Background(), user, CreateOrderRequest{Amount: &amount})
	require.NoError(t, err)
	return resp
}

func (e *paymentEnv) subscriptionCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func signFor(orderID, paymentID string) string {
	return razorpay.Sign(keySecret, []byte(orderID+"|"+paymentID))
}

func TestPrice(t *testing.T) {
	env := newPaymentEnv(t)

	price := env.svc.Price()
	assert.Equal(t, 299.0, price.Price)
	assert.Equal(t, "INR", price.Currency)
	assert.Equal(t, int64(29900), price.PriceInMinorUnits)
}

func TestCreateOrderPersistsPendingPayment(t *testing.T) {
	env := newPaymentEnv(t)
	user := env.createUser(t)

	resp := env.openOrder(t, user)
	assert.Equal(t, env.gateway.orderID, resp.OrderID)
	assert.Equal(t, int64(29900), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.KeyID)

	var stored models.Payment
	require.NoError(t, env.conn.First(&stored, "id = ?", resp.PaymentID).Error)
	assert.Equal(t, enums.PaymentStatusPending, stored.Status)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, user.ID, *stored.UserID)
	assert.Equal(t, user.Email, stored.Email)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("299")))
	assert.Equal(t, enums.PlanMonthly, stored.PlanID)
}

func TestCreateOrderValidatesBeforeCallingGateway(t *testing.T) {
	env := newPaymentEnv(t)
	user := env.createUser(t)
	negative, wrong := -1.0, 1.0

	cases := []CreateOrderRequest{
		{},
		{Amount: &negative},
		{Amount: &wrong},
	}
	for _, req := range cases {
		_, err := env.svc.CreateOrder(context.Background(), user, req)
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	}

	price := 299.0
	_, err := env.svc.CreateOrder(context.Background(), user, CreateOrderRequest{Amount: &price, Currency: "USD"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Zero(t, env.gateway.calls)
}

func TestCreateOrderGatewayFailureLeavesNoRecord(t *testing.T) {
	env := newPaymentEnv(t)
	env.gateway.err = pkgerrors.Wrap(pkgerrors.CodeGatewayAuthFailed, errors.New("401"), "Payment gateway authentication failed")

	amount := 299.0
	_, err := env.svc.CreateOrder(context.Background(), env.createUser(t), CreateOrderRequest{Amount: &amount})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGatewayAuthFailed))

	var n int64
	require.NoError(t, env.conn.Model(&models.Payment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestVerifyCompletesPaymentAndRenews(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	user := env.createUser(t)
	order := env.openOrder(t, user)

	payment, err := env.svc.Verify(ctx, user.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.ProviderPaymentID)
	assert.Equal(t, "pay_1", *payment.ProviderPaymentID)

	sub, err := env.subs.GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, env.subs.IsActive(sub))
	assert.True(t, sub.EndDate.Equal(fixedNow.Add(30*24*time.Hour)))
}

func TestVerifyAcceptsProviderFieldNames(t *testing.T) {
	env := newPaymentEnv(t)
	user := env.createUser(t)
	order := env.openOrder(t, user)

	payment, err := env.svc.Verify(context.Background(), user.ID, VerifyRequest{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_2",
		RazorpaySignature: signFor(order.OrderID, "pay_2"),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
}

func TestVerifyRejections(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	owner := env.createUser(t)
	other := env.createUser(t)
	order := env.openOrder(t, owner)

	_, err := env.svc.Verify(ctx, owner.ID, VerifyRequest{OrderID: order.OrderID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = env.svc.Verify(ctx, owner.ID, VerifyRequest{OrderID: "order_missing", PaymentID: "pay", Signature: "sig"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = env.svc.Verify(ctx, other.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_1"),
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = env.svc.Verify(ctx, owner.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_other"),
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeSignature))

	var stored models.Payment
	require.NoError(t, env.conn.First(&stored, "provider_order_id = ?", order.OrderID).Error)
	assert.Equal(t, enums.PaymentStatusPending, stored.Status)
	assert.Zero(t, env.subscriptionCount(t, owner.ID))
	assert.Zero(t, env.subscriptionCount(t, other.ID))
}

func TestCaptureThenVerifyRenewsOnce(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	user := env.createUser(t)
	order := env.openOrder(t, user)

	won, err := env.svc.Capture(ctx, order.OrderID, "pay_1", "webhook-signature")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = env.svc.Capture(ctx, order.OrderID, "pay_1", "webhook-signature")
	require.NoError(t, err)
	assert.False(t, won, "a duplicate capture is a no-op")

	payment, err := env.svc.Verify(ctx, user.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	assert.EqualValues(t, 1, env.subscriptionCount(t, user.ID))
}

func TestVerifyThenCaptureRenewsOnce(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	user := env.createUser(t)
	order := env.openOrder(t, user)

	_, err := env.svc.Verify(ctx, user.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_1"),
	})
	require.NoError(t, err)

	won, err := env.svc.Capture(ctx, order.OrderID, "pay_1", "webhook-signature")
	require.NoError(t, err)
	assert.False(t, won)
	assert.EqualValues(t, 1, env.subscriptionCount(t, user.ID))
}

func TestCaptureUnknownOrderIsNoop(t *testing.T) {
	env := newPaymentEnv(t)

	won, err := env.svc.Capture(context.Background(), "order_unknown", "pay_1", "sig")
	require.NoError(t, err)
	assert.False(t, won)

	won, err = env.svc.Capture(context.Background(), "", "pay_1", "sig")
	require.NoError(t, err)
	assert.False(t, won)
}

func TestCaptureWithoutUserCompletesWithoutRenewal(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	user := env.createUser(t)
	order := env.openOrder(t, user)
	require.NoError(t, env.conn.Model(&models.Payment{}).
		Where("provider_order_id = ?", order.OrderID).
		Update("user_id", nil).Error)

	won, err := env.svc.Capture(ctx, order.OrderID, "pay_1", "sig")
	require.NoError(t, err)
	assert.True(t, won)
	assert.Zero(t, env.subscriptionCount(t, user.ID))
}

func TestFailOnlyMovesPendingPayments(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	user := env.createUser(t)
	order := env.openOrder(t, user)

	moved, err := env.svc.Fail(ctx, order.OrderID, "pay_1")
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = env.svc.Fail(ctx, order.OrderID, "pay_1")
	require.NoError(t, err)
	assert.False(t, moved)

	won, err := env.svc.Capture(ctx, order.OrderID, "pay_1", "sig")
	require.NoError(t, err)
	assert.False(t, won, "failed payments are terminal")

	_, err = env.svc.Verify(ctx, user.ID, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: signFor(order.OrderID, "pay_1"),
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, env.subscriptionCount(t, user.ID))
}

func TestListAllNewestFirst(t *testing.T) {
	env := newPaymentEnv(t)
	user := env.createUser(t)
	first := env.openOrder(t, user)
	require.NoError(t, env.conn.Model(&models.Payment{}).
		Where("id = ?", first.PaymentID).
		Update("created_at", fixedNow.Add(-time.Hour)).Error)
	env.gateway.orderID = "order_second"
	second := env.openOrder(t, user)

	payments, err := env.svc.ListAll(context.Background(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, second.PaymentID, payments[0].ID)
	assert.Equal(t, first.PaymentID, payments[1].ID)
}
