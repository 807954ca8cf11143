package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchRecord is the provenance trail of batch generation: which admin
// produced which code, tagged with the batch's generation number.
// Rows are append-only and never mutated or deleted.
type BatchRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID    uint      `gorm:"not null;index:idx_batch_records_admin_id" json:"admin_id"`
	QrID       uuid.UUID `gorm:"type:uuid;not null;index:idx_batch_records_qr_id" json:"qr_id"`
	Generation int       `gorm:"not null" json:"generation"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_batch_records_created_at" json:"created_at"`
}

// TableName returns the table name for BatchRecord
func (BatchRecord) TableName() string { return "batch_records" }

// BatchRecordFilter provides filter fields for repository queries
type BatchRecordFilter struct {
	ID            *uuid.UUID
	AdminID       *uint
	QrID          *uuid.UUID
	Generation    *int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
