package subscriptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/dbtest"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

var baseTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc  Service
	conn *gorm.DB
	now  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	env := &testEnv{conn: conn, now: baseTime}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		TransactionRunner: db.Wrap(conn),
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Clock:             func() time.Time { return env.now },
	})
	require.NoError(t, err)
	env.svc = svc
	return env
}

func (e *testEnv) createUser(t *testing.T) uuid.UUID {
	t.Helper()
	user := &models.User{
		Name:          "Tony",
		Email:         uuid.NewString() + "@example.com",
		ContactNumber: "9999999999",
		PasswordHash:  "hash",
	}
	require.NoError(t, e.conn.Create(user).Error)
	return user.ID
}

func (e *testEnv) insertSub(t *testing.T, userID uuid.UUID, status enums.SubscriptionStatus, start, end time.Time) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		UserID:    userID,
		PlanID:    enums.PlanMonthly,
		Status:    status,
		StartDate: start,
		EndDate:   end,
		CreatedAt: start,
		UpdatedAt: start,
	}
	require.NoError(t, e.conn.Create(sub).Error)
	return sub
}

func (e *testEnv) load(t *testing.T, id uuid.UUID) models.Subscription {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, e.conn.First(&sub, "id = ?", id).Error)
	return sub
}

func (e *testEnv) countRows(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestComputeEndDateUsesThirtyDayMonths(t *testing.T) {
	start := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC), ComputeEndDate(start, 1))
	for _, months := range []int{2, 3, 12} {
		want := start.Add(time.Duration(30*months) * 24 * time.Hour)
		assert.Equal(t, want, ComputeEndDate(start, months), "months=%d", months)
	}
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), ComputeEndDate(start, 3))
	assert.Equal(t, time.Date(2026, time.January, 26, 0, 0, 0, 0, time.UTC), ComputeEndDate(start, 12))

	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, time.January, 31, 23, 0, 0, 0, ist)
	assert.True(t, ComputeEndDate(local, 1).Equal(ComputeEndDate(local.UTC(), 1)))
}

func TestIsActive(t *testing.T) {
	now := baseTime
	cases := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{name: "nil", sub: nil, want: false},
		{name: "active future", sub: &models.Subscription{Status: enums.SubscriptionStatusActive, EndDate: now.Add(time.Hour)}, want: true},
		{name: "active ends now", sub: &models.Subscription{Status: enums.SubscriptionStatusActive, EndDate: now}, want: true},
		{name: "active past", sub: &models.Subscription{Status: enums.SubscriptionStatusActive, EndDate: now.Add(-time.Second)}, want: false},
		{name: "cancelled future", sub: &models.Subscription{Status: enums.SubscriptionStatusCancelled, EndDate: now.Add(time.Hour)}, want: false},
		{name: "expired future", sub: &models.Subscription{Status: enums.SubscriptionStatusExpired, EndDate: now.Add(time.Hour)}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsActive(tc.sub, now))
		})
	}
}

func TestServiceCreateLeavesPriorRowsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	prior := env.insertSub(t, userID, enums.SubscriptionStatusExpired, baseTime.AddDate(0, -2, 0), baseTime.AddDate(0, -1, 0))

	start := baseTime.Add(-time.Hour)
	sub, err := env.svc.Create(ctx, userID, 3, start)
	require.NoError(t, err)

	assert.Equal(t, enums.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.StartDate.Equal(start))
	assert.True(t, sub.EndDate.Equal(start.Add(90*24*time.Hour)))
	assert.Equal(t, enums.SubscriptionStatusExpired, env.load(t, prior.ID).Status)
}

func TestServiceCreateRejectsInvalidMonths(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t)

	for _, months := range []int{0, -1, MaxMonths + 1} {
		_, err := env.svc.Create(context.Background(), userID, months, time.Time{})
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	}
	assert.Zero(t, env.countRows(t, userID))
}

func TestServiceRenewCancelsPriorAndStartsFresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	expired := env.insertSub(t, userID, enums.SubscriptionStatusExpired, baseTime.AddDate(0, -3, 0), baseTime.AddDate(0, -2, 0))
	active := env.insertSub(t, userID, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -5), baseTime.AddDate(0, 0, 25))

	sub, err := env.svc.Renew(ctx, userID, 1)
	require.NoError(t, err)

	assert.Equal(t, enums.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.StartDate.Equal(baseTime))
	assert.True(t, sub.EndDate.Equal(baseTime.Add(30*24*time.Hour)), "renewal must not stack onto the prior end date")

	for _, id := range []uuid.UUID{expired.ID, active.ID} {
		prior := env.load(t, id)
		assert.Equal(t, enums.SubscriptionStatusCancelled, prior.Status)
		require.NotNil(t, prior.CancelledAt)
		assert.True(t, prior.CancelledAt.Equal(baseTime))
	}

	current, err := env.svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, current.ID)
	assert.EqualValues(t, 3, env.countRows(t, userID))
}

func TestServiceRenewUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	missing := uuid.New()

	_, err := env.svc.Renew(context.Background(), missing, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Zero(t, env.countRows(t, missing))
}

func TestServiceRenewTwiceKeepsSingleCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)

	first, err := env.svc.Renew(ctx, userID, 1)
	require.NoError(t, err)
	env.now = baseTime.Add(time.Minute)
	second, err := env.svc.Renew(ctx, userID, 1)
	require.NoError(t, err)

	var active int64
	require.NoError(t, env.conn.Model(&models.Subscription{}).
		Where("user_id = ? AND status IN ?", userID, enums.CurrentSubscriptionStatuses).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
	assert.Equal(t, enums.SubscriptionStatusCancelled, env.load(t, first.ID).Status)
	assert.Equal(t, enums.SubscriptionStatusActive, env.load(t, second.ID).Status)
}

func TestServiceExtendStacksOntoEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	end := baseTime.AddDate(0, 0, 10)
	active := env.insertSub(t, userID, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -20), end)

	sub, err := env.svc.Extend(ctx, userID, 2)
	require.NoError(t, err)

	want := end.Add(60 * 24 * time.Hour)
	assert.Equal(t, active.ID, sub.ID)
	assert.True(t, sub.EndDate.Equal(want))
	assert.True(t, env.load(t, active.ID).EndDate.Equal(want))
}

func TestServiceExtendWithoutActiveIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	end := baseTime.AddDate(0, 0, -1)
	expired := env.insertSub(t, userID, enums.SubscriptionStatusExpired, baseTime.AddDate(0, -1, 0), end)

	_, err := env.svc.Extend(ctx, userID, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	stored := env.load(t, expired.ID)
	assert.Equal(t, enums.SubscriptionStatusExpired, stored.Status)
	assert.True(t, stored.EndDate.Equal(end))

	_, err = env.svc.Extend(ctx, uuid.New(), 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	active := env.insertSub(t, userID, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -1), baseTime.AddDate(0, 0, 29))

	require.NoError(t, env.svc.Cancel(ctx, userID))
	stored := env.load(t, active.ID)
	assert.Equal(t, enums.SubscriptionStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)

	err := env.svc.Cancel(ctx, userID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	current, err := env.svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, current, "cancelled rows are not current")
}

func TestServiceGetCurrentExpiresPastDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	stale := env.insertSub(t, userID, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -31), baseTime.AddDate(0, 0, -1))

	assert.False(t, env.svc.IsActive(stale), "past due rows are inactive before the flip")

	current, err := env.svc.GetCurrent(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, stale.ID, current.ID)
	assert.Equal(t, enums.SubscriptionStatusExpired, current.Status)
	assert.False(t, env.svc.IsActive(current))
	assert.Equal(t, enums.SubscriptionStatusExpired, env.load(t, stale.ID).Status)

	flipped, err := env.svc.ExpireIfPastDue(ctx, current)
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestExpireIfPastDueLeavesStaleCopyWhenRowMovedOn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.createUser(t)
	row := env.insertSub(t, userID, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -40), baseTime.AddDate(0, 0, -10))
	stale := *row

	require.NoError(t, env.conn.Model(&models.Subscription{}).
		Where("id = ?", row.ID).
		Update("status", enums.SubscriptionStatusCancelled).Error)

	flipped, err := env.svc.ExpireIfPastDue(ctx, &stale)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.Equal(t, enums.SubscriptionStatusActive, stale.Status)
	assert.Equal(t, enums.SubscriptionStatusCancelled, env.load(t, row.ID).Status)
}

func TestServiceGetCurrentWithoutSubscription(t *testing.T) {
	env := newTestEnv(t)

	current, err := env.svc.GetCurrent(context.Background(), env.createUser(t))
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestServiceExpirePastDueHonoursBatchLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env.insertSub(t, env.createUser(t), enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -40), baseTime.AddDate(0, 0, -(i + 1)))
	}
	fresh := env.insertSub(t, env.createUser(t), enums.SubscriptionStatusActive, baseTime, baseTime.AddDate(0, 0, 30))

	n, err := env.svc.ExpirePastDue(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = env.svc.ExpirePastDue(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = env.svc.ExpirePastDue(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, enums.SubscriptionStatusActive, env.load(t, fresh.ID).Status)
}

func TestServiceListAllAndCurrentForUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	withSub := env.createUser(t)
	without := env.createUser(t)
	env.insertSub(t, withSub, enums.SubscriptionStatusCancelled, baseTime.AddDate(0, -2, 0), baseTime.AddDate(0, -1, 0))
	current := env.insertSub(t, withSub, enums.SubscriptionStatusActive, baseTime.AddDate(0, 0, -1), baseTime.AddDate(0, 0, 29))

	all, err := env.svc.ListAll(ctx, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, current.ID, all[0].ID, "newest first")

	page, err := env.svc.ListAll(ctx, pagination.Params{Skip: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	byUser, err := env.svc.CurrentForUsers(ctx, []uuid.UUID{withSub, without})
	require.NoError(t, err)
	require.Contains(t, byUser, withSub)
	assert.Equal(t, current.ID, byUser[withSub].ID)
	assert.NotContains(t, byUser, without)
}
