package models

import "time"

// Discount applies a percentage to a variation on one day of the week,
// optionally bounded by a date window (YYYY-MM-DD, both ends inclusive).
type Discount struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	ServiceVariationID uint             `gorm:"index;not null" json:"service_variation_id"`
	ServiceVariation   ServiceVariation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	DayOfWeek  int     `gorm:"not null" json:"day_of_week"`
	Percentage float64 `gorm:"type:decimal(5,2);not null" json:"percentage"`
	StartDate  *string `gorm:"size:10" json:"start_date"`
	EndDate    *string `gorm:"size:10" json:"end_date"`
	IsActive   bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
