package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skanfy/qr-backend/models"
	"gorm.io/gorm"
)

// OccasionRepositoryImpl implements OccasionRepository
type OccasionRepositoryImpl struct {
	*BaseRepository[models.Occasion, models.OccasionFilter]
}

func NewOccasionRepository(db *gorm.DB) OccasionRepository {
	return &OccasionRepositoryImpl{BaseRepository: NewBaseRepository[models.Occasion, models.OccasionFilter](db)}
}

func (r *OccasionRepositoryImpl) ByID(ctx context.Context, id uuid.UUID) (*models.Occasion, error) {
	db := r.getDB(ctx)
	var row models.Occasion
	if err := db.Where("id = ?", id).Last(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *OccasionRepositoryImpl) applyFilter(db *gorm.DB, f models.OccasionFilter) *gorm.DB {
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

func (r *OccasionRepositoryImpl) ByFilter(ctx context.Context, filter models.OccasionFilter, orderBy string, limit, offset int) ([]*models.Occasion, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Occasion{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Occasion
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OccasionRepositoryImpl) Count(ctx context.Context, filter models.OccasionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Occasion{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *OccasionRepositoryImpl) Exists(ctx context.Context, filter models.OccasionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *OccasionRepositoryImpl) Update(ctx context.Context, occasion *models.Occasion) error {
	db := r.getDB(ctx)
	return db.Save(occasion).Error
}

// Delete removes the occasion. The qr_codes FK cascades, so the occasion's
// codes are deleted with it.
func (r *OccasionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.getDB(ctx)
	return db.Where("id = ?", id).Delete(&models.Occasion{}).Error
}
