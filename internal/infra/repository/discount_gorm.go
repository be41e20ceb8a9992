package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/domain/pricing"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type DiscountGormRepository struct {
	db *gorm.DB
}

func NewDiscountGormRepository(db *gorm.DB) *DiscountGormRepository {
	return &DiscountGormRepository{db: db}
}

func (r *DiscountGormRepository) ListActiveDiscounts(
	ctx context.Context,
	variationID uint,
	dayOfWeek int,
) ([]models.Discount, error) {

	var out []models.Discount
	if err := r.db.WithContext(ctx).
		Where("service_variation_id = ? AND day_of_week = ? AND is_active = ?", variationID, dayOfWeek, true).
		Order("percentage DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var _ pricing.Repository = (*DiscountGormRepository)(nil)
