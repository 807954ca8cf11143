package models

import (
	"time"

	"github.com/google/uuid"
)

// Object is the payload a user attaches to a claimed QR code: item name,
// free-text description, optional hosted image URL and additional info.
// An object belongs to exactly one code; deleting the object nulls the
// code's reference without deleting the code.
type Object struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    *string   `gorm:"type:text" json:"description,omitempty"`
	AdditionalInfo *string   `gorm:"type:text" json:"additional_info,omitempty"`
	ImageURL       *string   `gorm:"type:text" json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Object
func (Object) TableName() string { return "objects" }

// ObjectFilter provides filter fields for repository queries
type ObjectFilter struct {
	ID            *uuid.UUID
	Name          *string
	NameContains  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
