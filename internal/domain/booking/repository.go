package booking

import (
	"context"

	"github.com/BruksfildServices01/marketplace/internal/models"
)

// CommitmentFilter selects the provider bookings that may reach into
// [FromDate, ToDate]: every booking with an explicit end date, plus those
// starting in the range or early enough before FromDate for the provider's
// longest variation to carry them into it.
type CommitmentFilter struct {
	ProviderID uint
	Statuses   []Status
	ExcludeID  *uint
	FromDate   string
	ToDate     string
}

type Repository interface {
	// -------- Catalog --------
	GetService(
		ctx context.Context,
		id uint,
	) (*models.Service, error)

	GetVariation(
		ctx context.Context,
		id uint,
	) (*models.ServiceVariation, error)

	// -------- Booking --------
	CreateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	GetBooking(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	UpdateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	ListCommitments(
		ctx context.Context,
		f CommitmentFilter,
	) ([]models.Booking, error)

	ListBookingsForUser(
		ctx context.Context,
		userID uint,
		asProvider bool,
	) ([]models.Booking, error)

	// -------- Notification --------
	CreateNotification(
		ctx context.Context,
		n *models.Notification,
	) error

	// -------- Unit of work --------

	// Transaction runs fn inside one transaction that holds the provider's
	// row lock, serializing check-and-commit for that provider.
	Transaction(
		ctx context.Context,
		providerID uint,
		fn func(tx Repository) error,
	) error
}
