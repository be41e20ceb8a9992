package booking

import (
	"context"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/dto"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type ListBookings struct {
	repo domain.Repository
}

func NewListBookings(repo domain.Repository) *ListBookings {
	return &ListBookings{repo: repo}
}

// Execute lists bookings received by a provider or made by a client,
// newest first.
func (uc *ListBookings) Execute(
	ctx context.Context,
	userID uint,
	role string,
) ([]dto.BookingListDTO, error) {

	bookings, err := uc.repo.ListBookingsForUser(ctx, userID, role == models.RoleProvider)
	if err != nil {
		return nil, err
	}
	return dto.BookingList(bookings), nil
}
