package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactMessage is a message left through the public contact form. Operators
// flip Read while working through the inbox.
type ContactMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;"`
	Name      string     `gorm:"size:100;not null"`
	Email     string     `gorm:"not null"`
	Subject   string     `gorm:"size:200;not null"`
	Message   string     `gorm:"type:text;not null"`
	Read      bool       `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (message *ContactMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return
}
