package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

type expiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokenCleanupJobParams struct {
	Logger *logger.Logger
	Tokens expiredTokenDeleter
}

func NewRefreshTokenCleanupJob(params RefreshTokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("refresh token repository required")
	}
	return &refreshTokenCleanupJob{
		logg:   params.Logger,
		tokens: params.Tokens,
		now:    time.Now,
	}, nil
}

type refreshTokenCleanupJob struct {
	logg   *logger.Logger
	tokens expiredTokenDeleter
	now    func() time.Time
}

func (j *refreshTokenCleanupJob) Name() string { return "refresh-token-cleanup" }

func (j *refreshTokenCleanupJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	deleted, err := j.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "refresh_tokens.cleanup_complete")
	return nil
}
