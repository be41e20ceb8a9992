package pricing

import (
	"context"
	"math"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type Repository interface {
	ListActiveDiscounts(
		ctx context.Context,
		variationID uint,
		dayOfWeek int,
	) ([]models.Discount, error)
}

type Quote struct {
	BasePrice          float64 `json:"base_price"`
	FinalPrice         float64 `json:"final_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
}

// InWindow reports whether date (YYYY-MM-DD) falls inside the discount's
// optional inclusive window. Strings compare in calendar order.
func InWindow(d models.Discount, date string) bool {
	if d.StartDate != nil && *d.StartDate != "" && date < *d.StartDate {
		return false
	}
	if d.EndDate != nil && *d.EndDate != "" && date > *d.EndDate {
		return false
	}
	return true
}

// Best returns the highest active discount applicable on date, or nil.
func Best(discounts []models.Discount, date string) *models.Discount {
	weekday, err := calendar.Weekday(date)
	if err != nil {
		return nil
	}

	var best *models.Discount
	for i := range discounts {
		d := discounts[i]
		if !d.IsActive || d.DayOfWeek != weekday || !InWindow(d, date) {
			continue
		}
		if best == nil || d.Percentage > best.Percentage {
			best = &discounts[i]
		}
	}
	return best
}

func Apply(base, percentage float64) Quote {
	if percentage < 0 {
		percentage = 0
	}
	amount := round2(base * percentage / 100)
	final := round2(base - amount)
	if final < 0 {
		final = 0
	}
	return Quote{
		BasePrice:          base,
		FinalPrice:         final,
		DiscountPercentage: percentage,
		DiscountAmount:     amount,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
