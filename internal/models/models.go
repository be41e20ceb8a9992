package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&ServiceType{},
		&Service{},
		&ServiceVariation{},
		&Discount{},
		&Booking{},
		&Notification{},
		&Message{},
		&Review{},
		&AvailabilitySlot{},
		&AuditLog{},
	}
}
