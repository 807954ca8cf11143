package models

import (
	"time"

	"github.com/google/uuid"
)

// QrCode is the central QR entity. The UUID primary key is public: it is
// embedded verbatim in the code's resolvable link.
//
// Lifecycle: rows are created only in batches (unclaimed: no user, no
// object, inactive). Attaching an object claims the code for a user and
// activates it in the same write. Reset returns the code to unclaimed but
// keeps the occasion reference so batch history stays intact.
//
// Generation is fixed at creation: all codes created by one batch call for
// an occasion share one generation number, starting at 1 per occasion.
type QrCode struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IsActive   bool      `gorm:"not null;default:false" json:"is_active"`
	Generation int       `gorm:"not null;default:0;index:idx_qr_codes_generation" json:"generation"`
	Link       string    `gorm:"type:text" json:"link"`
	Image      string    `gorm:"type:text" json:"image"` // base64-encoded SVG, empty until rendered

	OccasionID *uuid.UUID `gorm:"type:uuid;index:idx_qr_codes_occasion_id" json:"occasion_id,omitempty"`
	ObjectID   *uuid.UUID `gorm:"type:uuid;index:idx_qr_codes_object_id" json:"object_id,omitempty"`
	UserID     *uint      `gorm:"index:idx_qr_codes_user_id" json:"user_id,omitempty"`

	Occasion *Occasion `gorm:"foreignKey:OccasionID;constraint:OnDelete:CASCADE" json:"occasion,omitempty"`
	Object   *Object   `gorm:"foreignKey:ObjectID;constraint:OnDelete:SET NULL" json:"object,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_qr_codes_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for QrCode
func (QrCode) TableName() string { return "qr_codes" }

// QrCodeFilter provides filter fields for repository queries
type QrCodeFilter struct {
	ID            *uuid.UUID
	Link          *string
	OccasionID    *uuid.UUID
	UserID        *uint
	ObjectID      *uuid.UUID
	Generation    *int
	IsActive      *bool
	HasObject     *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// GenerationCount is one row of the per-occasion generation history.
type GenerationCount struct {
	OccasionID uuid.UUID `json:"occasion_id"`
	Generation int       `json:"generation"`
	Count      int64     `json:"count"`
}
