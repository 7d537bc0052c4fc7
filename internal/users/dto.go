package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	ContactNumber string     `json:"contact_number"`
	IsAdmin       bool       `json:"is_admin"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLogin     *time.Time `json:"last_login"`
}

// AdminUserDTO is a user row enriched with their current subscription.
type AdminUserDTO struct {
	UserDTO
	Subscription          *subscriptions.SubscriptionDTO `json:"subscription"`
	HasSubscription       bool                           `json:"has_subscription"`
	HasActiveSubscription bool                           `json:"has_active_subscription"`
}

// DashboardDTO is the combined profile view.
type DashboardDTO struct {
	User                  *UserDTO                       `json:"user"`
	Subscription          *subscriptions.SubscriptionDTO `json:"subscription"`
	HasActiveSubscription bool                           `json:"has_active_subscription"`
}

// CreateUserRequest is used by registration and by admins creating accounts.
// Presence is checked by the service so every missing field yields one message.
type CreateUserRequest struct {
	Name          string `json:"name" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	ContactNumber string `json:"contact_number" validate:"max=32"`
	Password      string `json:"password" validate:"max=128"`
	IsAdmin       *bool  `json:"is_admin,omitempty"`
}

// UpdateProfileRequest is the self-service allow-list.
type UpdateProfileRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=100"`
	ContactNumber *string `json:"contact_number,omitempty" validate:"omitempty,max=32"`
}

// AdminUpdateRequest is the admin allow-list; passwords go through ResetPassword.
type AdminUpdateRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	ContactNumber *string `json:"contact_number,omitempty" validate:"omitempty,max=32"`
	IsAdmin       *bool   `json:"is_admin,omitempty"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		ContactNumber: u.ContactNumber,
		IsAdmin:       u.IsAdmin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLogin:     u.LastLogin,
	}
}
