// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/skanfy/qr-backend/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// QrCodeRepository defines operations for QR codes, including the
// lifecycle writes (claim, detach, reset) that must be race-safe.
type QrCodeRepository interface {
	Repository[models.QrCode, models.QrCodeFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.QrCode, error)
	ByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.QrCode, error)
	ByLink(ctx context.Context, link string) (*models.QrCode, error)
	ListWithRelations(ctx context.Context, filter models.QrCodeFilter, orderBy string, limit, offset int) ([]*models.QrCode, error)
	ListByOccasionName(ctx context.Context, nameFragment string) ([]*models.QrCode, error)

	// AttachObject conditionally claims the code: the update only applies
	// while the code has no object. Returns the number of rows affected;
	// zero means the claim was lost (already furnished).
	AttachObject(ctx context.Context, qrID, objectID uuid.UUID, userID uint) (int64, error)
	// DetachObject nulls the object reference if it still points at objectID.
	DetachObject(ctx context.Context, qrID, objectID uuid.UUID) (int64, error)
	// Reset returns the code to unclaimed: null user, null object, inactive.
	// The occasion reference is deliberately preserved.
	Reset(ctx context.Context, qrID uuid.UUID) (int64, error)
	// UpdateRendered stores the rendered image for a code.
	UpdateRendered(ctx context.Context, qrID uuid.UUID, image string) error

	// MaxGeneration returns the highest generation number used for an
	// occasion, or 0 when the occasion has no codes yet.
	MaxGeneration(ctx context.Context, occasionID uuid.UUID) (int, error)
	// GenerationHistory lists per-occasion, per-generation code counts for
	// every occasion that has at least one code.
	GenerationHistory(ctx context.Context) ([]*models.GenerationCount, error)
}

// OccasionRepository defines operations for occasions
type OccasionRepository interface {
	Repository[models.Occasion, models.OccasionFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.Occasion, error)
	Update(ctx context.Context, occasion *models.Occasion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ObjectRepository defines operations for attached objects
type ObjectRepository interface {
	Repository[models.Object, models.ObjectFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.Object, error)
	Update(ctx context.Context, object *models.Object) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// AdminRepository defines operations for admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByID(ctx context.Context, id uint) (*models.Admin, error)
	ByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// BatchRecordRepository defines operations for batch provenance records
type BatchRecordRepository interface {
	Repository[models.BatchRecord, models.BatchRecordFilter]
	ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.BatchRecord, error)
	ByQrID(ctx context.Context, qrID uuid.UUID) ([]*models.BatchRecord, error)
}
