package contacts

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarvis4everyone/subscription-backend/pkg/db/models"
	"github.com/jarvis4everyone/subscription-backend/pkg/enums"
)

type CreateRequest struct {
	Name    string `json:"name" validate:"max=100"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ContactDTO struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Subject   string              `json:"subject"`
	Message   string              `json:"message"`
	Status    enums.ContactStatus `json:"status"`
	UserID    *uuid.UUID          `json:"user_id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		Status:    c.Status,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromModels(contacts []models.Contact) []ContactDTO {
	out := make([]ContactDTO, 0, len(contacts))
	for i := range contacts {
		out = append(out, *FromModel(&contacts[i]))
	}
	return out
}
