package contacts

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
)

const contactNotFoundMessage = "Contact not found"

// Service handles public contact form submissions and their admin triage.
type Service interface {
	Submit(ctx context.Context, userID *uuid.UUID, req CreateRequest) (*models.Contact, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	List(ctx context.Context, status string, page pagination.Params) ([]models.Contact, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	policy *bluemonday.Policy
	logg   *logger.Logger
	clock  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contacts repo required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
		logg:   logg,
		clock:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Submit stores a new submission with markup stripped from every field.
func (s *service) Submit(ctx context.Context, userID *uuid.UUID, req CreateRequest) (*models.Contact, error) {
	contact := &models.Contact{
		UserID:  userID,
		Name:    s.clean(req.Name),
		Email:   strings.ToLower(s.clean(req.Email)),
		Subject: s.clean(req.Subject),
		Message: s.clean(req.Message),
		Status:  enums.ContactStatusNew,
	}
	if contact.Name == "" || contact.Email == "" || contact.Subject == "" || contact.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "All fields are required")
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact")
	}
	s.logg.Info(s.logg.WithField(ctx, "contact_id", contact.ID.String()), "contact.submitted")
	return contact, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact")
	}
	if contact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, contactNotFoundMessage)
	}
	return contact, nil
}

func (s *service) List(ctx context.Context, status string, page pagination.Params) ([]models.Contact, error) {
	var filter *enums.ContactStatus
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseContactStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid status value")
		}
		filter = &parsed
	}
	contacts, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
	}
	return contacts, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Contact, error) {
	parsed, err := enums.ParseContactStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid status value")
	}
	found, err := s.repo.UpdateStatus(ctx, id, parsed, s.clock())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update contact")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, contactNotFoundMessage)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete contact")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, contactNotFoundMessage)
	}
	return nil
}

func (s *service) clean(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
}
