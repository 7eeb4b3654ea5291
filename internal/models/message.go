package models

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to a project's chat between the owning client and the
// hired freelancer. The auto-increment ID is part of the API contract:
// clients poll with ?since=<id> and rely on ids growing monotonically.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`

	Content       string `gorm:"type:text" json:"content"`
	AttachmentURL string `gorm:"type:text" json:"attachment_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
