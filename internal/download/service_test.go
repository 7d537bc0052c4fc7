package download

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/storage"
)

var now = time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

type stubSubs struct {
	sub *models.Subscription
}

func (s stubSubs) GetCurrent(context.Context, uuid.UUID) (*models.Subscription, error) {
	return s.sub, nil
}

func (s stubSubs) IsActive(sub *models.Subscription) bool {
	return subscriptions.IsActive(sub, now)
}

type stubSource struct {
	err    error
	opened int
}

func (s *stubSource) Open(context.Context) (*storage.Object, error) {
	s.opened++
	if s.err != nil {
		return nil, s.err
	}
	return &storage.Object{Body: io.NopCloser(strings.NewReader("PK")), Size: 2}, nil
}

func (s *stubSource) Ping(context.Context) error { return s.err }

func newGate(t *testing.T, sub *models.Subscription, source *stubSource) *Service {
	t.Helper()
	svc, err := NewService(stubSubs{sub: sub}, source, "", logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func sub(status enums.SubscriptionStatus, end time.Time) *models.Subscription {
	return &models.Subscription{ID: uuid.New(), Status: status, StartDate: end.AddDate(0, 0, -30), EndDate: end}
}

func TestOpenRejections(t *testing.T) {
	cases := []struct {
		name string
		sub  *models.Subscription
		want string
	}{
		{name: "no subscription", want: noSubscriptionMessage},
		{name: "expired status", sub: sub(enums.SubscriptionStatusExpired, now.Add(time.Hour)), want: expiredMessage},
		{name: "active past end", sub: sub(enums.SubscriptionStatusActive, now.Add(-time.Second)), want: expiredMessage},
		{name: "cancelled", sub: sub(enums.SubscriptionStatusCancelled, now.Add(time.Hour)), want: expiredMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &stubSource{}
			_, err := newGate(t, tc.sub, source).Open(context.Background(), uuid.New())
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
			assert.Equal(t, tc.want, pkgerrors.As(err).Message())
			assert.Zero(t, source.opened)
		})
	}
}

func TestOpenMissingArtifact(t *testing.T) {
	source := &stubSource{err: storage.ErrNotFound}
	_, err := newGate(t, sub(enums.SubscriptionStatusActive, now.Add(time.Hour)), source).Open(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeArtifactMissing))

	source = &stubSource{err: errors.New("bucket unreachable")}
	_, err = newGate(t, sub(enums.SubscriptionStatusActive, now.Add(time.Hour)), source).Open(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeArtifactMissing))
}

func TestOpenServesActiveSubscriber(t *testing.T) {
	gate := newGate(t, sub(enums.SubscriptionStatusActive, now), &stubSource{})
	assert.Equal(t, defaultFileName, gate.FileName())

	obj, err := gate.Open(context.Background(), uuid.New())
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(body))
}
