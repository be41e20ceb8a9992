package models

import "time"

type Message struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	BookingID *uint    `gorm:"index" json:"booking_id"`
	Booking   *Booking `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"booking,omitempty"`

	SenderID   uint `gorm:"index;not null" json:"sender_id"`
	Sender     User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sender"`
	ReceiverID uint `gorm:"index;not null" json:"receiver_id"`
	Receiver   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"receiver"`

	Content string     `gorm:"type:text;not null" json:"content"`
	IsRead  bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt  *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
