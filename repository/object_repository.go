package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skanfy/qr-backend/models"
	"gorm.io/gorm"
)

// ObjectRepositoryImpl implements ObjectRepository
type ObjectRepositoryImpl struct {
	*BaseRepository[models.Object, models.ObjectFilter]
}

func NewObjectRepository(db *gorm.DB) ObjectRepository {
	return &ObjectRepositoryImpl{BaseRepository: NewBaseRepository[models.Object, models.ObjectFilter](db)}
}

func (r *ObjectRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.Object, error) {
	db := r.getDB(ctx)
	var row models.Object
	if err := db.Where("id = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ObjectRepositoryImpl) applyFilter(db *gorm.DB, f models.ObjectFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.NameContains != nil {
		db = db.Where("name ILIKE ?", "%"+*f.NameContains+"%")
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *ObjectRepositoryImpl) ByFilter(ctx context.Context, filter models.ObjectFilter, orderBy string, limit, offset int) ([]*models.Object, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Object{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Object
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ObjectRepositoryImpl) Count(ctx context.Context, filter models.ObjectFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Object{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ObjectRepositoryImpl) Exists(ctx context.Context, filter models.ObjectFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ObjectRepositoryImpl) Update(ctx context.Context, object *models.Object) error {
	db := r.getDB(ctx)
	return db.Save(object).Error
}

// Delete removes the object. The qr_codes FK is SET NULL, so any code still
// pointing at it falls back to unfurnished.
func (r *ObjectRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.getDB(ctx)
	return db.Where("id = ?", id).Delete(&models.Object{}).Error
}
