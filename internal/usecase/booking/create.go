package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

const OverlapWarning = "the provider already has a confirmed booking at this time; the request may be rejected"

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	ClientID           uint
	ServiceID          uint
	ServiceVariationID uint

	StartDate string
	StartTime string
	EndDate   *string
	EndTime   *string
}

type CreateBookingResult struct {
	Booking *models.Booking
	Warning string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo   domain.Repository
	pricer Pricer
	fanout *Fanout
}

func NewCreateBooking(
	repo domain.Repository,
	pricer Pricer,
	fanout *Fanout,
) *CreateBooking {
	return &CreateBooking{
		repo:   repo,
		pricer: pricer,
		fanout: fanout,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*CreateBookingResult, error) {

	slot := domain.Slot{
		StartDate: in.StartDate,
		StartTime: in.StartTime,
		EndDate:   in.EndDate,
		EndTime:   in.EndTime,
	}
	if err := domain.ValidateSlot(slot); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Service / variation
	// --------------------------------------------------
	svc, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("service_not_found", "service not found")
		}
		return nil, err
	}

	variation, err := uc.repo.GetVariation(ctx, in.ServiceVariationID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if variation == nil || variation.ServiceID != svc.ID {
		return nil, httperr.ErrValidation("invalid_variation", "variation does not belong to this service")
	}

	if svc.ProviderID == in.ClientID {
		return nil, httperr.ErrValidation("own_service", "providers cannot book their own services")
	}

	// --------------------------------------------------
	// Price snapshot
	// --------------------------------------------------
	quote := uc.pricer.PriceWithDiscount(ctx, variation.ID, in.StartDate, variation.Price)

	b := &models.Booking{
		ClientID:           in.ClientID,
		ProviderID:         svc.ProviderID,
		ServiceID:          svc.ID,
		ServiceVariationID: variation.ID,
		StartDate:          in.StartDate,
		StartTime:          in.StartTime,
		EndDate:            in.EndDate,
		EndTime:            in.EndTime,
		Status:             string(domain.InitialStatus()),
		TotalPrice:         quote.FinalPrice,
	}

	// --------------------------------------------------
	// Overlap warning + persist
	// --------------------------------------------------
	var overlap bool
	err = uc.repo.Transaction(ctx, svc.ProviderID, func(tx domain.Repository) error {
		var err error
		overlap, err = HasOverlap(ctx, tx, OverlapQuery{
			ProviderID:      svc.ProviderID,
			Slot:            slot,
			DurationMinutes: variation.DurationMinutes,
			Statuses:        CreationConflictStatuses,
		})
		if err != nil {
			return err
		}

		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		b.Service = *svc
		b.ServiceVariation = *variation
		return notify(ctx, tx, b.ProviderID, b, models.NotificationNewBooking,
			"New booking request: "+describe(b))
	})
	if err != nil {
		return nil, err
	}

	res := &CreateBookingResult{Booking: b}
	if overlap {
		metrics.IncConflict("warning")
		res.Warning = OverlapWarning
	}

	uc.fanout.Committed(ctx, Change{
		Transition: "created",
		Event:      realtime.EventBookingCreated,
		Booking:    b,
		ActorID:    in.ClientID,
		Metadata:   map[string]any{"overlap_warning": overlap, "total_price": b.TotalPrice},
	})

	return res, nil
}
