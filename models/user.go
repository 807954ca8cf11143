// Package models contains domain entities and business models for the QR platform
package models

import (
	"time"
)

// User is an end user who can claim QR codes. Credential storage and
// verification live in the external identity service; only the fields the
// scan projection exposes are kept here.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Email        string  `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Phone        string  `gorm:"size:20;not null;index:idx_users_phone" json:"phone"`
	OtherPhone   *string `gorm:"size:20" json:"other_phone,omitempty"`
	ProfileImage *string `gorm:"type:text" json:"profile_image,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_users_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uint
	Email         *string
	Phone         *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
