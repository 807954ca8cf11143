package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/skanfy/qr-backend/models"
	"gorm.io/gorm"
)

// QrCodeRepositoryImpl implements QrCodeRepository
type QrCodeRepositoryImpl struct {
	*BaseRepository[models.QrCode, models.QrCodeFilter]
}

func NewQrCodeRepository(db *gorm.DB) QrCodeRepository {
	return &QrCodeRepositoryImpl{BaseRepository: NewBaseRepository[models.QrCode, models.QrCodeFilter](db)}
}

func (r *QrCodeRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.QrCode, error) {
	db := r.getDB(ctx)
	var row models.QrCode
	if err := db.Where("id = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *QrCodeRepositoryImpl) ByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.QrCode, error) {
	db := r.getDB(ctx)
	var row models.QrCode
	err := db.
		Preload("Occasion").
		Preload("Object").
		Preload("User").
		Where("id = ?", id).
		Last(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *QrCodeRepositoryImpl) ByLink(ctx context.Context, link string) (*models.QrCode, error) {
	filter := models.QrCodeFilter{Link: &link}
	rows, err := r.ByFilter(ctx, filter, "created_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *QrCodeRepositoryImpl) applyFilter(db *gorm.DB, f models.QrCodeFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Link != nil {
		db = db.Where("link = ?", *f.Link)
	}
	if f.OccasionID != nil {
		db = db.Where("occasion_id = ?", *f.OccasionID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.ObjectID != nil {
		db = db.Where("object_id = ?", *f.ObjectID)
	}
	if f.Generation != nil {
		db = db.Where("generation = ?", *f.Generation)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.HasObject != nil {
		if *f.HasObject {
			db = db.Where("object_id IS NOT NULL")
		} else {
			db = db.Where("object_id IS NULL")
		}
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *QrCodeRepositoryImpl) ByFilter(ctx context.Context, filter models.QrCodeFilter, orderBy string, limit, offset int) ([]*models.QrCode, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QrCode{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.QrCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QrCodeRepositoryImpl) ListWithRelations(ctx context.Context, filter models.QrCodeFilter, orderBy string, limit, offset int) ([]*models.QrCode, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QrCode{}), filter).
		Preload("Occasion").
		Preload("Object").
		Preload("User")
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.QrCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QrCodeRepositoryImpl) ListByOccasionName(ctx context.Context, nameFragment string) ([]*models.QrCode, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.QrCode{}).
		Joins("JOIN occasions ON occasions.id = qr_codes.occasion_id").
		Where("occasions.name ILIKE ?", "%"+nameFragment+"%").
		Preload("Occasion").
		Preload("Object").
		Preload("User").
		Order("qr_codes.created_at DESC")
	var rows []*models.QrCode
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *QrCodeRepositoryImpl) Count(ctx context.Context, filter models.QrCodeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.QrCode{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *QrCodeRepositoryImpl) Exists(ctx context.Context, filter models.QrCodeFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// AttachObject claims an unfurnished code with a single conditional update.
// The WHERE object_id IS NULL guard makes concurrent claims race-safe: only
// one writer observes a non-zero rows-affected count.
func (r *QrCodeRepositoryImpl) AttachObject(ctx context.Context, qrID, objectID uuid.UUID, userID uint) (int64, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.QrCode{}).
		Where("id = ? AND object_id IS NULL", qrID).
		Updates(map[string]any{
			"object_id": objectID,
			"user_id":   userID,
			"is_active": true,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DetachObject nulls only the object reference. Ownership and the active
// flag are left untouched.
func (r *QrCodeRepositoryImpl) DetachObject(ctx context.Context, qrID, objectID uuid.UUID) (int64, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.QrCode{}).
		Where("id = ? AND object_id = ?", qrID, objectID).
		Update("object_id", nil)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Reset clears ownership but keeps the occasion reference so the code stays
// attributable to the event it was printed for.
func (r *QrCodeRepositoryImpl) Reset(ctx context.Context, qrID uuid.UUID) (int64, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.QrCode{}).
		Where("id = ?", qrID).
		Updates(map[string]any{
			"user_id":   nil,
			"object_id": nil,
			"is_active": false,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *QrCodeRepositoryImpl) UpdateRendered(ctx context.Context, qrID uuid.UUID, image string) error {
	db := r.getDB(ctx)
	return db.Model(&models.QrCode{}).
		Where("id = ?", qrID).
		Update("image", image).Error
}

func (r *QrCodeRepositoryImpl) MaxGeneration(ctx context.Context, occasionID uuid.UUID) (int, error) {
	db := r.getDB(ctx)
	var max sql.NullInt64
	err := db.Model(&models.QrCode{}).
		Where("occasion_id = ?", occasionID).
		Select("MAX(generation)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *QrCodeRepositoryImpl) GenerationHistory(ctx context.Context) ([]*models.GenerationCount, error) {
	db := r.getDB(ctx)
	var rows []*models.GenerationCount
	err := db.Model(&models.QrCode{}).
		Select("occasion_id, generation, COUNT(*) AS count").
		Where("occasion_id IS NOT NULL").
		Group("occasion_id, generation").
		Order("occasion_id, generation").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
