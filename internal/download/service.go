// Package download gates the product artifact behind an active subscription.
package download

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/storage"
)

const (
	noSubscriptionMessage = "No subscription found. Please purchase a subscription to download."
	expiredMessage        = "Your subscription has expired. Please renew to download."
	defaultFileName       = "jarvis4everyone.zip"
)

type subscriptionReader interface {
	GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	IsActive(sub *models.Subscription) bool
}

type Service struct {
	subs     subscriptionReader
	source   storage.Source
	fileName string
	logg     *logger.Logger
}

func NewService(subs subscriptionReader, source storage.Source, fileName string, logg *logger.Logger) (*Service, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if source == nil {
		return nil, fmt.Errorf("download source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = defaultFileName
	}
	return &Service{subs: subs, source: source, fileName: fileName, logg: logg}, nil
}

// FileName is the attachment name sent to clients.
func (s *Service) FileName() string {
	return s.fileName
}

// Open checks the user's subscription and opens the artifact. The caller closes
// the returned object's body.
func (s *Service) Open(ctx context.Context, userID uuid.UUID) (*storage.Object, error) {
	logCtx := s.logg.WithUserID(ctx, userID.String())

	sub, err := s.subs.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		s.logg.Warn(logCtx, "download.denied_no_subscription")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, noSubscriptionMessage)
	}
	if !s.subs.IsActive(sub) {
		s.logg.Warn(logCtx, "download.denied_expired")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, expiredMessage)
	}

	obj, err := s.source.Open(ctx)
	if err != nil {
		event := "download.open_failed"
		if errors.Is(err, storage.ErrNotFound) {
			event = "download.artifact_missing"
		}
		s.logg.Error(logCtx, event, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeArtifactMissing, err, "Download file not available")
	}
	s.logg.Info(logCtx, "download.started")
	return obj, nil
}
