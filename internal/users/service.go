package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/pagination"
	"github.com/jarvis4everyone/subscription-backend/pkg/security"
)

const (
	userNotFoundMessage = "User not found"
	emailTakenMessage   = "Email already registered"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type subscriptionReader interface {
	GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CurrentForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*models.Subscription, error)
	Now() time.Time
}

type sessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// Service covers self-service profile reads and writes plus admin account management.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, req CreateUserRequest) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*models.User, error)
	Dashboard(ctx context.Context, user *models.User) (*DashboardDTO, error)
	List(ctx context.Context, page pagination.Params) ([]AdminUserDTO, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, req AdminUpdateRequest) (*models.User, error)
	ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	Repo              Repository
	Subscriptions     subscriptionReader
	Sessions          sessionRevoker
	TransactionRunner txRunner
	PasswordConfig    config.PasswordConfig
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	subs     subscriptionReader
	sessions sessionRevoker
	txRunner txRunner
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repo required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		subs:     params.Subscriptions,
		sessions: params.Sessions,
		txRunner: params.TransactionRunner,
		pwCfg:    params.PasswordConfig,
		logg:     params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	return user, nil
}

// Create stores a new account with a lower-cased email and a freshly hashed password.
func (s *service) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	contact := strings.TrimSpace(req.ContactNumber)
	if name == "" || email == "" || contact == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "All fields are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, emailTakenMessage)
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{
		Name:          name,
		Email:         email,
		ContactNumber: contact,
		PasswordHash:  hash,
		IsAdmin:       req.IsAdmin != nil && *req.IsAdmin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user.created")
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.ContactNumber != nil {
		fields["contact_number"] = strings.TrimSpace(*req.ContactNumber)
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No valid fields to update")
	}
	return s.update(ctx, id, fields)
}

func (s *service) Dashboard(ctx context.Context, user *models.User) (*DashboardDTO, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	sub, err := s.subs.GetCurrent(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	dto := subscriptions.FromModel(sub, s.subs.Now())
	return &DashboardDTO{
		User:                  FromModel(user),
		Subscription:          dto,
		HasActiveSubscription: dto != nil && dto.IsActive,
	}, nil
}

// List returns a page of users, each with their current subscription.
func (s *service) List(ctx context.Context, page pagination.Params) ([]AdminUserDTO, error) {
	rows, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	current, err := s.subs.CurrentForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.subs.Now()
	out := make([]AdminUserDTO, 0, len(rows))
	for i := range rows {
		sub := subscriptions.FromModel(current[rows[i].ID], now)
		out = append(out, AdminUserDTO{
			UserDTO:               *FromModel(&rows[i]),
			Subscription:          sub,
			HasSubscription:       sub != nil,
			HasActiveSubscription: sub != nil && sub.IsActive,
		})
	}
	return out, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, req AdminUpdateRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.ContactNumber != nil {
		fields["contact_number"] = strings.TrimSpace(*req.ContactNumber)
	}
	if req.IsAdmin != nil {
		fields["is_admin"] = *req.IsAdmin
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email cannot be empty")
		}
		existing, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup email")
		}
		if existing != nil && existing.ID != id {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, emailTakenMessage)
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No fields to update")
	}
	return s.update(ctx, id, fields)
}

// ResetPassword replaces the password hash and signs the user out of every session.
func (s *service) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "New password is required")
	}
	hash, err := security.HashPassword(newPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.update(ctx, id, map[string]any{"password_hash": hash}); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke sessions")
	}
	s.logg.Info(s.logg.WithUserID(ctx, id.String()), "user.password_reset")
	return nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, "Cannot delete yourself")
	}
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":  id.String(),
		"actor_id": actorID.String(),
	})
	s.logg.Info(logCtx, "user.deleted")
	return nil
}

func (s *service) update(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	fields["updated_at"] = time.Now().UTC()
	found, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	return s.Get(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
