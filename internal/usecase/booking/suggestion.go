package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

func loadAlternative(ctx context.Context, tx domain.Repository, b *models.Booking) (*models.Booking, error) {
	if b.AlternativeBookingID == nil {
		return nil, nil
	}
	alt, err := tx.GetBooking(ctx, *b.AlternativeBookingID)
	if err != nil {
		return nil, notFound(err)
	}
	return alt, nil
}

// ======================================================
// ACCEPT
// ======================================================

type AcceptSuggestionResult struct {
	Original    *models.Booking
	Alternative *models.Booking
}

type AcceptSuggestion struct {
	repo   domain.Repository
	pricer Pricer
	fanout *Fanout
}

func NewAcceptSuggestion(repo domain.Repository, pricer Pricer, fanout *Fanout) *AcceptSuggestion {
	return &AcceptSuggestion{repo: repo, pricer: pricer, fanout: fanout}
}

func (uc *AcceptSuggestion) Execute(
	ctx context.Context,
	clientID uint,
	bookingID uint,
) (*AcceptSuggestionResult, error) {

	peek, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFound(err)
	}

	// Priced outside the unit; the resolver reads through its own handle.
	var price float64
	if peek.SuggestedDate != nil {
		price = uc.pricer.PriceWithDiscount(ctx, peek.ServiceVariationID, *peek.SuggestedDate, peek.ServiceVariation.Price).FinalPrice
	}

	var alt *models.Booking
	original, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if err := requireClient(b, clientID); err != nil {
			return err
		}

		previous, err := loadAlternative(ctx, tx, b)
		if err != nil {
			return err
		}
		if err := domain.CanRespondToSuggestion(b, previous); err != nil {
			return err
		}

		alt, err = domain.AlternativeFrom(b)
		if err != nil {
			return err
		}

		overlap, err := HasOverlap(ctx, tx, OverlapQuery{
			ProviderID:      b.ProviderID,
			Slot:            domain.SlotOf(alt),
			DurationMinutes: b.ServiceVariation.DurationMinutes,
			Statuses:        SuggestionConflictStatuses,
		})
		if err != nil {
			return err
		}
		if overlap {
			metrics.IncConflict("blocked")
			return httperr.ErrConflict("time_conflict", "the suggested slot is no longer available")
		}

		alt.TotalPrice = price
		if err := tx.CreateBooking(ctx, alt); err != nil {
			return err
		}

		b.AlternativeBookingID = &alt.ID
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		alt.Service = b.Service
		alt.ServiceVariation = b.ServiceVariation
		return notify(ctx, tx, b.ProviderID, alt, models.NotificationNewBooking,
			"Suggested slot accepted, new booking request: "+describe(alt))
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "suggestion_accepted",
		Event:      realtime.EventSuggestionAccepted,
		Booking:    alt,
		ActorID:    clientID,
		Metadata:   map[string]any{"original_booking_id": original.ID},
	})

	return &AcceptSuggestionResult{Original: original, Alternative: alt}, nil
}

// ======================================================
// REJECT
// ======================================================

type RejectSuggestion struct {
	repo   domain.Repository
	fanout *Fanout
	now    func() time.Time
}

func NewRejectSuggestion(repo domain.Repository, fanout *Fanout) *RejectSuggestion {
	return &RejectSuggestion{repo: repo, fanout: fanout, now: time.Now}
}

func (uc *RejectSuggestion) Execute(
	ctx context.Context,
	clientID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := inProviderUnit(ctx, uc.repo, bookingID, func(tx domain.Repository, b *models.Booking) error {
		if err := requireClient(b, clientID); err != nil {
			return err
		}

		previous, err := loadAlternative(ctx, tx, b)
		if err != nil {
			return err
		}
		if err := domain.RejectSuggestion(b, previous, uc.now()); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		return notify(ctx, tx, b.ProviderID, b, models.NotificationBookingUpdated,
			"The client declined your suggested slot for "+describe(b))
	})
	if err != nil {
		return nil, err
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "suggestion_rejected",
		Event:      realtime.EventSuggestionRejected,
		Booking:    b,
		ActorID:    clientID,
	})
	return b, nil
}
