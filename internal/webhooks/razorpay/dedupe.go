package razorpaywebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jarvis4everyone/subscription-backend/pkg/redis"
)

const defaultDeliveryTTL = 48 * time.Hour

// DeliveryLog records the X-Razorpay-Event-Id of every delivery taken on, so a
// provider retry of the same event is acknowledged without being re-applied.
type DeliveryLog struct {
	store redis.IdempotencyStore
	scope string
	ttl   time.Duration
	now   func() time.Time
}

// NewDeliveryLog builds a log under scope. A zero ttl selects the default
// retention; entries never outlive it.
func NewDeliveryLog(store redis.IdempotencyStore, ttl time.Duration, scope string) (*DeliveryLog, error) {
	scope = strings.TrimSpace(scope)
	switch {
	case store == nil:
		return nil, errors.New("delivery store is required")
	case ttl < 0:
		return nil, fmt.Errorf("delivery ttl must not be negative, got %s", ttl)
	case scope == "":
		return nil, errors.New("delivery scope is required")
	}
	if ttl == 0 {
		ttl = defaultDeliveryTTL
	}
	return &DeliveryLog{
		store: store,
		scope: scope,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Claim takes eventID for this delivery. It returns false when an earlier
// delivery already claimed it.
func (l *DeliveryLog) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := l.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := l.store.SetNX(ctx, key, l.now().Format(time.RFC3339), l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim delivery %s: %w", eventID, err)
	}
	return claimed, nil
}

// Forget drops a claim so the provider's next retry is processed.
func (l *DeliveryLog) Forget(ctx context.Context, eventID string) error {
	key, err := l.key(eventID)
	if err != nil {
		return err
	}
	return l.store.Del(ctx, key)
}

func (l *DeliveryLog) key(eventID string) (string, error) {
	if eventID = strings.TrimSpace(eventID); eventID == "" {
		return "", errors.New("event id is required")
	}
	return l.store.IdempotencyKey(l.scope, eventID), nil
}
