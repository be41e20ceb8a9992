package booking

import (
	"context"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type CancelBooking struct {
	repo   domain.Repository
	fanout *Fanout
}

func NewCancelBooking(repo domain.Repository, fanout *Fanout) *CancelBooking {
	return &CancelBooking{repo: repo, fanout: fanout}
}

func (uc *CancelBooking) Execute(
	ctx context.Context,
	actorID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if !b.IsParty(actorID) {
			return httperr.ErrForbidden("not_booking_party", "only the client or the provider can cancel this booking")
		}
		if err := domain.Cancel(b); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		return notify(ctx, tx, b.Counterpart(actorID), b, models.NotificationBookingCancelled,
			"A booking was cancelled: "+describe(b))
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "cancelled",
		Event:      realtime.EventBookingCancelled,
		Booking:    b,
		ActorID:    actorID,
	})
	return b, nil
}
