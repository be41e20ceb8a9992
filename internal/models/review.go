package models

import "time"

type Review struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID  uint `gorm:"uniqueIndex;not null" json:"booking_id"`
	ServiceID  uint `gorm:"index;not null" json:"service_id"`
	ProviderID uint `gorm:"index;not null" json:"provider_id"`
	ClientID   uint `gorm:"index;not null" json:"client_id"`
	Client     User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
