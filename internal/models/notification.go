package models

import "time"

const (
	NotificationNewBooking       = "new_booking"
	NotificationBookingUpdated   = "booking_updated"
	NotificationBookingRejected  = "booking_rejected"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationBookingCompleted = "booking_completed"
	NotificationNewMessage       = "new_message"
)

type Notification struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	UserID    uint  `gorm:"index;not null" json:"user_id"`
	BookingID *uint `gorm:"index" json:"booking_id"`

	Type    string `gorm:"size:40;not null" json:"type"`
	Message string `gorm:"type:text;not null" json:"message"`
	IsRead  bool   `gorm:"not null;default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
