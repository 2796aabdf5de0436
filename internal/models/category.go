package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id" yaml:"-"`
	Name      string    `gorm:"size:50;not null" json:"name" yaml:"name"`
	SortOrder int       `gorm:"not null;default:0;check:sort_order >= 0" json:"sort_order" yaml:"sort_order"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

func (category *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return
}
