package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint `gorm:"index;not null" json:"client_id"`
	Client   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"client"`

	ProviderID uint `gorm:"index;not null" json:"provider_id"`
	Provider   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"provider"`

	ServiceID uint    `gorm:"index;not null" json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service"`

	ServiceVariationID uint             `gorm:"index;not null" json:"service_variation_id"`
	ServiceVariation   ServiceVariation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service_variation"`

	// Calendar values without timezone: YYYY-MM-DD / HH:MM.
	StartDate string  `gorm:"size:10;index;not null" json:"start_date"`
	StartTime string  `gorm:"size:5;not null" json:"start_time"`
	EndDate   *string `gorm:"size:10" json:"end_date"`
	EndTime   *string `gorm:"size:5" json:"end_time"`

	Status     string  `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	TotalPrice float64 `gorm:"type:decimal(10,2);not null" json:"total_price"`

	RejectionReason      *string    `gorm:"type:text" json:"rejection_reason"`
	SuggestedDate        *string    `gorm:"size:10" json:"suggested_date"`
	SuggestedTime        *string    `gorm:"size:5" json:"suggested_time"`
	SuggestionRejectedAt *time.Time `json:"suggestion_rejected_at"`
	AlternativeBookingID *uint      `json:"alternative_booking_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) IsParty(userID uint) bool {
	return b.ClientID == userID || b.ProviderID == userID
}

// Counterpart returns the other participant of the booking.
func (b *Booking) Counterpart(userID uint) uint {
	if userID == b.ClientID {
		return b.ProviderID
	}
	return b.ClientID
}
