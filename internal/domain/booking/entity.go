package booking

import (
	"time"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Approve(b *models.Booking) error {
	if err := CanApprove(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusConfirmed)
	return nil
}

// Suggestion is an alternative slot offered with a rejection.
type Suggestion struct {
	Date string
	Time string
}

func Reject(b *models.Booking, reason string, suggestion *Suggestion) error {
	if err := CanReject(Status(b.Status)); err != nil {
		return err
	}

	b.Status = string(StatusRejected)
	if reason != "" {
		b.RejectionReason = &reason
	}
	if suggestion != nil {
		d, t := suggestion.Date, suggestion.Time
		b.SuggestedDate = &d
		b.SuggestedTime = &t
	}
	return nil
}

func Cancel(b *models.Booking) error {
	if err := CanCancel(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusCancelled)
	return nil
}

func Complete(b *models.Booking) error {
	if err := CanComplete(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusCompleted)
	return nil
}

// CanRespondToSuggestion guards both accept and reject of a suggestion.
// alternative is the booking previously created from the suggestion, if any.
func CanRespondToSuggestion(b *models.Booking, alternative *models.Booking) error {
	if Status(b.Status) != StatusRejected {
		return httperr.ErrPrecondition("booking_not_rejected", "only rejected bookings carry suggestions")
	}
	if b.SuggestedDate == nil || b.SuggestedTime == nil {
		return httperr.ErrPrecondition("no_suggestion", "this booking has no suggested slot")
	}
	if b.SuggestionRejectedAt != nil {
		return httperr.ErrPrecondition("suggestion_already_rejected", "the suggestion was already rejected")
	}
	if alternative != nil && Status(alternative.Status) == StatusPending {
		return httperr.ErrPrecondition("suggestion_already_accepted", "a booking for the suggested slot is already pending")
	}
	return nil
}

func RejectSuggestion(b *models.Booking, alternative *models.Booking, now time.Time) error {
	if err := CanRespondToSuggestion(b, alternative); err != nil {
		return err
	}
	b.SuggestionRejectedAt = &now
	return nil
}

// AlternativeFrom builds the pending booking for an accepted suggestion.
// A multi-day original keeps its span, shifted to the suggested start.
func AlternativeFrom(b *models.Booking) (*models.Booking, error) {
	start, err := calendar.At(*b.SuggestedDate, *b.SuggestedTime)
	if err != nil {
		return nil, httperr.ErrValidation("invalid_suggestion", "the suggested slot is malformed")
	}

	alt := &models.Booking{
		ClientID:           b.ClientID,
		ProviderID:         b.ProviderID,
		ServiceID:          b.ServiceID,
		ServiceVariationID: b.ServiceVariationID,
		StartDate:          *b.SuggestedDate,
		StartTime:          *b.SuggestedTime,
		Status:             string(InitialStatus()),
		TotalPrice:         b.TotalPrice,
	}

	if b.EndDate != nil && b.EndTime != nil {
		origStart, err := calendar.At(b.StartDate, b.StartTime)
		if err != nil {
			return nil, err
		}
		origEnd, err := calendar.At(*b.EndDate, *b.EndTime)
		if err != nil {
			return nil, err
		}
		end := start.Add(origEnd.Sub(origStart))
		endDate, endTime := calendar.FormatDate(end), calendar.FormatClock(end)
		alt.EndDate = &endDate
		alt.EndTime = &endTime
	}

	return alt, nil
}
