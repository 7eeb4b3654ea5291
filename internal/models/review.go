package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is left by the owning client once a project completes.
// One review per (project, client).
type Review struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_project_client" json:"project_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_project_client" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	Rating   int    `gorm:"not null" json:"rating"` // 1-5
	Feedback string `gorm:"type:text" json:"feedback"`

	CreatedAt time.Time `json:"created_at"`

	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Client     *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
