package booking

import (
	"context"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type ApproveBooking struct {
	repo   domain.Repository
	fanout *Fanout
}

func NewApproveBooking(repo domain.Repository, fanout *Fanout) *ApproveBooking {
	return &ApproveBooking{repo: repo, fanout: fanout}
}

func (uc *ApproveBooking) Execute(
	ctx context.Context,
	providerID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if err := requireProvider(b, providerID); err != nil {
			return err
		}
		if err := domain.CanApprove(domain.Status(b.Status)); err != nil {
			return err
		}

		overlap, err := HasOverlap(ctx, tx, OverlapQuery{
			ProviderID:      b.ProviderID,
			Slot:            domain.SlotOf(b),
			DurationMinutes: b.ServiceVariation.DurationMinutes,
			ExcludeID:       &b.ID,
			Statuses:        ApprovalConflictStatuses,
		})
		if err != nil {
			return err
		}
		if overlap {
			metrics.IncConflict("blocked")
			return httperr.ErrConflict("time_conflict", "the booking overlaps another booking of this provider")
		}

		if err := domain.Approve(b); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		return notify(ctx, tx, b.ClientID, b, models.NotificationBookingUpdated,
			"Your booking was confirmed: "+describe(b))
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "approved",
		Event:      realtime.EventBookingUpdated,
		Booking:    b,
		ActorID:    providerID,
	})
	return b, nil
}
