package dto

import (
	"time"

	"github.com/BruksfildServices01/marketplace/internal/models"
)

type BookingListDTO struct {
	ID        uint    `json:"id"`
	StartDate string  `json:"start_date"`
	StartTime string  `json:"start_time"`
	EndDate   *string `json:"end_date"`
	EndTime   *string `json:"end_time"`

	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price"`

	ClientID      uint   `json:"client_id"`
	ClientName    string `json:"client_name"`
	ProviderID    uint   `json:"provider_id"`
	ProviderName  string `json:"provider_name"`
	ServiceName   string `json:"service_name"`
	VariationName string `json:"variation_name"`

	RejectionReason      *string    `json:"rejection_reason"`
	SuggestedDate        *string    `json:"suggested_date"`
	SuggestedTime        *string    `json:"suggested_time"`
	SuggestionRejectedAt *time.Time `json:"suggestion_rejected_at"`
	AlternativeBookingID *uint      `json:"alternative_booking_id"`

	CreatedAt time.Time `json:"created_at"`
}

func BookingList(in []models.Booking) []BookingListDTO {
	out := make([]BookingListDTO, 0, len(in))
	for _, b := range in {
		out = append(out, BookingListDTO{
			ID:                   b.ID,
			StartDate:            b.StartDate,
			StartTime:            b.StartTime,
			EndDate:              b.EndDate,
			EndTime:              b.EndTime,
			Status:               b.Status,
			TotalPrice:           b.TotalPrice,
			ClientID:             b.ClientID,
			ClientName:           b.Client.Name,
			ProviderID:           b.ProviderID,
			ProviderName:         b.Provider.Name,
			ServiceName:          b.Service.Name,
			VariationName:        b.ServiceVariation.Name,
			RejectionReason:      b.RejectionReason,
			SuggestedDate:        b.SuggestedDate,
			SuggestedTime:        b.SuggestedTime,
			SuggestionRejectedAt: b.SuggestionRejectedAt,
			AlternativeBookingID: b.AlternativeBookingID,
			CreatedAt:            b.CreatedAt,
		})
	}
	return out
}
