package cron

import (
	"context"
	"fmt"

	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

const (
	defaultExpiryBatch = 500
	// maxExpiryBatches caps one run; whatever is left is picked up next cycle.
	maxExpiryBatches = 100
)

type subscriptionExpirer interface {
	ExpirePastDue(ctx context.Context, limit int) (int64, error)
}

type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionExpirer
	BatchSize     int
}

// NewSubscriptionExpiryJob flips active subscriptions whose end date has passed to
// expired, in batches.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &subscriptionExpiryJob{
		logg:  params.Logger,
		subs:  params.Subscriptions,
		batch: batch,
	}, nil
}

type subscriptionExpiryJob struct {
	logg  *logger.Logger
	subs  subscriptionExpirer
	batch int
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	var total int64
	batches := 0
	for batches < maxExpiryBatches {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.subs.ExpirePastDue(ctx, j.batch)
		if err != nil {
			return fmt.Errorf("expire batch %d: %w", batches+1, err)
		}
		batches++
		total += n
		if n < int64(j.batch) {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": total,
		"batches": batches,
	})
	j.logg.Info(logCtx, "subscriptions.expired_sweep")
	return nil
}
