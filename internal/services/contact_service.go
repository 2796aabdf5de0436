package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farellandr/runnershive/internal/errdef"
	"github.com/farellandr/runnershive/internal/forms"
	"github.com/farellandr/runnershive/internal/metrics"
	"github.com/farellandr/runnershive/internal/models"
)

type contactRepository interface {
	Create(ctx context.Context, message *models.ContactMessage) error
}

type ContactService struct {
	repo    contactRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewContactService(repo contactRepository, metrics *metrics.Metrics, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, metrics: metrics, logger: logger}
}

// Submit stores a contact message. Invalid input returns the field errors
// together with a bad request error and nothing is stored. userID is set
// when the sender is logged in.
func (s *ContactService) Submit(ctx context.Context, input *forms.ContactInput, userID *uuid.UUID) (forms.FieldErrors, error) {
	errs := forms.ValidateContact(input)
	if len(errs) > 0 {
		return errs, errdef.NewBadRequest("invalid contact message")
	}

	message := &models.ContactMessage{
		UserID:  userID,
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.metrics.ContactMessage()
	s.logger.Info("contact message stored", zap.String("id", message.ID.String()), zap.String("subject", message.Subject))

	return nil, nil
}
