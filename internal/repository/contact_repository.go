package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/farellandr/runnershive/internal/models"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, message *models.ContactMessage) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(message).Error; err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}

	return nil
}
