package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *BookingGormRepository) GetService(
	ctx context.Context,
	id uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *BookingGormRepository) GetVariation(
	ctx context.Context,
	id uint,
) (*models.ServiceVariation, error) {

	var v models.ServiceVariation
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *BookingGormRepository) CreateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("ServiceVariation").
		First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) UpdateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

func (r *BookingGormRepository) ListCommitments(
	ctx context.Context,
	f domain.CommitmentFilter,
) ([]models.Booking, error) {

	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}

	longest, err := r.longestDuration(ctx, f.ProviderID)
	if err != nil {
		return nil, err
	}
	from, err := calendar.AddDays(f.FromDate, -domain.LookbackDays(longest))
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Preload("ServiceVariation").
		Where("provider_id = ? AND status IN ?", f.ProviderID, statuses).
		Where("((start_date >= ? AND start_date <= ?) OR end_date IS NOT NULL)", from, f.ToDate)

	if f.ExcludeID != nil {
		q = q.Where("id <> ?", *f.ExcludeID)
	}

	var out []models.Booking
	if err := q.Order("start_date ASC, start_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// longestDuration is the longest variation the provider offers, in minutes.
func (r *BookingGormRepository) longestDuration(ctx context.Context, providerID uint) (int, error) {
	var longest int
	err := r.db.WithContext(ctx).
		Model(&models.ServiceVariation{}).
		Joins("JOIN services ON services.id = service_variations.service_id").
		Where("services.provider_id = ?", providerID).
		Select("COALESCE(MAX(service_variations.duration_minutes), 0)").
		Scan(&longest).Error
	return longest, err
}

func (r *BookingGormRepository) ListBookingsForUser(
	ctx context.Context,
	userID uint,
	asProvider bool,
) ([]models.Booking, error) {

	column := "client_id"
	if asProvider {
		column = "provider_id"
	}

	var out []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Provider").
		Preload("Service").
		Preload("ServiceVariation").
		Where(column+" = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --------------------------------------------------
// Notification
// --------------------------------------------------

func (r *BookingGormRepository) CreateNotification(
	ctx context.Context,
	n *models.Notification,
) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// --------------------------------------------------
// Unit of work
// --------------------------------------------------

func (r *BookingGormRepository) Transaction(
	ctx context.Context,
	providerID uint,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var provider models.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&provider, providerID).Error; err != nil {
			return err
		}

		return fn(&BookingGormRepository{db: tx})
	})
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
