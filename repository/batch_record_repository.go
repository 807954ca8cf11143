package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/skanfy/qr-backend/models"
	"gorm.io/gorm"
)

// BatchRecordRepositoryImpl implements BatchRecordRepository
type BatchRecordRepositoryImpl struct {
	*BaseRepository[models.BatchRecord, models.BatchRecordFilter]
}

func NewBatchRecordRepository(db *gorm.DB) BatchRecordRepository {
	return &BatchRecordRepositoryImpl{BaseRepository: NewBaseRepository[models.BatchRecord, models.BatchRecordFilter](db)}
}

func (r *BatchRecordRepositoryImpl) applyFilter(db *gorm.DB, f models.BatchRecordFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.AdminID != nil {
		db = db.Where("admin_id = ?", *f.AdminID)
	}
	if f.QrID != nil {
		db = db.Where("qr_id = ?", *f.QrID)
	}
	if f.Generation != nil {
		db = db.Where("generation = ?", *f.Generation)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *BatchRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.BatchRecordFilter, orderBy string, limit, offset int) ([]*models.BatchRecord, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.BatchRecord{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.BatchRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BatchRecordRepositoryImpl) Count(ctx context.Context, filter models.BatchRecordFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.BatchRecord{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BatchRecordRepositoryImpl) Exists(ctx context.Context, filter models.BatchRecordFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *BatchRecordRepositoryImpl) ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.BatchRecord, error) {
	filter := models.BatchRecordFilter{AdminID: &adminID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

func (r *BatchRecordRepositoryImpl) ByQrID(ctx context.Context, qrID uuid.UUID) ([]*models.BatchRecord, error) {
	filter := models.BatchRecordFilter{QrID: &qrID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}
