package booking

import (
	"context"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type CompleteBooking struct {
	repo   domain.Repository
	fanout *Fanout
}

func NewCompleteBooking(repo domain.Repository, fanout *Fanout) *CompleteBooking {
	return &CompleteBooking{repo: repo, fanout: fanout}
}

func (uc *CompleteBooking) Execute(
	ctx context.Context,
	providerID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if err := requireProvider(b, providerID); err != nil {
			return err
		}
		if err := domain.Complete(b); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		return notify(ctx, tx, b.ClientID, b, models.NotificationBookingCompleted,
			"Your booking was completed, you can now leave a review: "+describe(b))
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "completed",
		Event:      realtime.EventBookingUpdated,
		Booking:    b,
		ActorID:    providerID,
	})
	return b, nil
}
