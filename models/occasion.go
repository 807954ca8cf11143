package models

import (
	"time"

	"github.com/google/uuid"
)

// Occasion groups the QR codes generated for one event or campaign.
// Names are display-only and not unique. Deleting an occasion cascades
// to its codes (see QrCode foreign key).
type Occasion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;index:idx_occasions_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Occasion
func (Occasion) TableName() string { return "occasions" }

// OccasionFilter provides filter fields for repository queries
type OccasionFilter struct {
	ID            *uuid.UUID
	Name          *string
	NameContains  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
