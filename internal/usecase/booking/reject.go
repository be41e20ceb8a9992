package booking

import (
	"context"
	"strings"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type RejectBookingInput struct {
	Reason        string
	SuggestedDate string
	SuggestedTime string
}

type RejectBooking struct {
	repo   domain.Repository
	fanout *Fanout
}

func NewRejectBooking(repo domain.Repository, fanout *Fanout) *RejectBooking {
	return &RejectBooking{repo: repo, fanout: fanout}
}

func (uc *RejectBooking) Execute(
	ctx context.Context,
	providerID uint,
	bookingID uint,
	in RejectBookingInput,
) (*models.Booking, error) {

	suggestion, err := domain.ParseSuggestion(in.SuggestedDate, in.SuggestedTime)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)

	b, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if err := requireProvider(b, providerID); err != nil {
			return err
		}
		if err := domain.Reject(b, reason, suggestion); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		msg := "Your booking was rejected: " + describe(b)
		if reason != "" {
			msg += ". Reason: " + reason
		}
		if suggestion != nil {
			msg += ". Suggested slot: " + suggestion.Date + " at " + suggestion.Time
		}
		return notify(ctx, tx, b.ClientID, b, models.NotificationBookingRejected, msg)
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "rejected",
		Event:      realtime.EventBookingUpdated,
		Booking:    b,
		ActorID:    providerID,
		Metadata:   map[string]any{"reason": reason, "has_suggestion": suggestion != nil},
	})
	return b, nil
}
